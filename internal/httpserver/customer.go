package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"loyalty-program/internal/domain"
	customersvc "loyalty-program/internal/service/customer"
)

type customerPayload struct {
	domain.Customer
	// RewardEligible marks cashback customers whose accrued total reached
	// the notification threshold.
	RewardEligible bool `json:"rewardEligible"`
}

type customerDetail struct {
	customerPayload
	Purchases []domain.Purchase `json:"purchases"`
}

func toPayload(svc CustomerService, c domain.Customer) customerPayload {
	return customerPayload{Customer: c, RewardEligible: svc.Eligible(c)}
}

func createCustomerHandler(svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in customersvc.RegisterInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
			return
		}
		created, err := svc.Register(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, toPayload(svc, *created))
	}
}

func listCustomersHandler(svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		customers, err := svc.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		payloads := make([]customerPayload, 0, len(customers))
		for _, cust := range customers {
			payloads = append(payloads, toPayload(svc, cust))
		}
		c.JSON(http.StatusOK, gin.H{"customers": payloads})
	}
}

func getCustomerHandler(svc CustomerService, ledger LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		// One snapshot for the customer and its ledger, so the derived
		// total always matches the purchase list below it.
		cust, purchases, err := ledger.Ledger(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if purchases == nil {
			purchases = []domain.Purchase{}
		}
		c.JSON(http.StatusOK, customerDetail{
			customerPayload: toPayload(svc, *cust),
			Purchases:       purchases,
		})
	}
}

func updateCustomerHandler(svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var in customersvc.RegisterInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
			return
		}
		updated, err := svc.Update(c.Request.Context(), id, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toPayload(svc, *updated))
	}
}

func deleteCustomerHandler(svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"loyalty-program/internal/domain"
	ledgersvc "loyalty-program/internal/service/ledger"
)

type accrueRequest struct {
	AmountCents   int64 `json:"amountCents"`
	RedeemedCents int64 `json:"redeemedCents"`
}

type amendRequest struct {
	AmountCents int64 `json:"amountCents"`
}

type accrueResponse struct {
	Purchase domain.Purchase `json:"purchase"`
	Customer customerPayload `json:"customer"`
}

func accrueHandler(custSvc CustomerService, ledger LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var in accrueRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
			return
		}
		purchase, cust, err := ledger.Accrue(c.Request.Context(), id, ledgersvc.AccrueInput{
			AmountCents:   in.AmountCents,
			RedeemedCents: in.RedeemedCents,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, accrueResponse{
			Purchase: *purchase,
			Customer: toPayload(custSvc, *cust),
		})
	}
}

func listPurchasesHandler(ledger LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		purchases, err := ledger.Purchases(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if purchases == nil {
			purchases = []domain.Purchase{}
		}
		c.JSON(http.StatusOK, gin.H{"purchases": purchases})
	}
}

func amendHandler(ledger LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var in amendRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
			return
		}
		amended, err := ledger.Amend(c.Request.Context(), id, in.AmountCents)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"purchase": amended})
	}
}

func clearRewardHandler(ledger LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		cleared, err := ledger.ClearReward(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"purchase": cleared})
	}
}

package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"loyalty-program/internal/regcode"
	customersvc "loyalty-program/internal/service/customer"
)

const qrSizePixels = 256

// registrationQRHandler serves the scannable code that opens the
// self-registration flow.
func registrationQRHandler(publicBaseURL string) gin.HandlerFunc {
	url := regcode.RegistrationURL(publicBaseURL)
	return func(c *gin.Context) {
		png, err := regcode.PNG(url, qrSizePixels)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	}
}

func selfRegisterHandler(svc CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in customersvc.SelfRegisterInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed body"})
			return
		}
		created, err := svc.SelfRegister(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, toPayload(svc, *created))
	}
}

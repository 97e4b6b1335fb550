package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"userauth/internal/middleware"
	"userauth/internal/services"
)

type MailHandler struct {
	emailService services.EmailService
}

func NewMailHandler(emailService services.EmailService) *MailHandler {
	return &MailHandler{emailService: emailService}
}

type sendMailRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

// @Summary      Send mail
// @Description  Sends a mail on behalf of the authenticated caller
// @Tags         Mail
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      sendMailRequest  true  "Recipient, subject and body"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Router       /api/v1/mail [post]
func (h *MailHandler) SendMailToUser(c *gin.Context) {
	me, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorize User")
		return
	}

	var req sendMailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Email, subject and body are required")
		return
	}

	// delivery is best-effort, the response never waits on SMTP
	go func() {
		if err := h.emailService.Send(me.Email, req.Email, req.Subject, req.Body); err != nil {
			log.Printf("[mail][send] delivery to %s failed: %v", req.Email, err)
		}
	}()

	respond(c, http.StatusOK, "Email sent successfully", nil)
}

package handlers

import (
	"errors"
	"html"
	"net/http"
	"strings"

	"github.com/AtRiskMedia/styletree-go/internal/application/services"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/styletree-go/internal/domain/repositories"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// MessageAccepted is shown above a fresh form after a successful submission.
const MessageAccepted = "Thank you, your submission was received."

const maxUploadMemory = 32 << 20

// FormHandlers handles live edits, submissions and option notifications of
// rendered form instances.
type FormHandlers struct {
	formService     *services.FormService
	fragmentService *services.FragmentService
	broadcaster     messaging.Broadcaster
	upgrader        websocket.Upgrader
	logger          *logging.ChanneledLogger
}

// NewFormHandlers creates a new form handlers instance. origins limits the
// pages allowed to open the notification socket; empty allows all.
func NewFormHandlers(
	formService *services.FormService,
	fragmentService *services.FragmentService,
	broadcaster messaging.Broadcaster,
	origins []string,
	logger *logging.ChanneledLogger,
) *FormHandlers {
	return &FormHandlers{
		formService:     formService,
		fragmentService: fragmentService,
		broadcaster:     broadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		logger: logger,
	}
}

func originChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// UpdateState handles POST /api/v1/forms/:formId/state
func (h *FormHandlers) UpdateState(c *gin.Context) {
	var edit services.Edit
	if err := c.ShouldBindJSON(&edit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if err := h.formService.Edit(c.Param("formId"), edit); err != nil {
		if errors.Is(err, services.ErrUnknownEditKey) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithContext(logging.ChannelForms, c.Request.Context()).Error("Live edit failed",
			"formId", c.Param("formId"), "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store edit"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Submit handles POST /api/v1/forms/:formId/submit
//
// Browsers posting the fallback form get the page back as HTML: rejected
// submissions re-render with the submitted values and inline errors, while
// accepted ones render a fresh form instance. JSON clients get the result.
func (h *FormHandlers) Submit(c *gin.Context) {
	req := services.SubmitRequest{FormID: c.Param("formId")}

	if strings.HasPrefix(c.ContentType(), gin.MIMEMultipartPOSTForm) {
		if err := c.Request.ParseMultipartForm(maxUploadMemory); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form body", "details": err.Error()})
			return
		}
		req.Files = c.Request.MultipartForm.File
	} else if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid form body", "details": err.Error()})
		return
	}
	req.Values = c.Request.PostForm

	result, err := h.formService.Submit(c.Request.Context(), req)
	wantHTML := c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML

	switch {
	case errors.Is(err, repositories.ErrInvalidFormToken):
		h.fail(c, wantHTML, http.StatusForbidden, "This form has expired. Please reload the page.")
		return
	case errors.Is(err, repositories.ErrMissingPage):
		h.fail(c, wantHTML, http.StatusUnprocessableEntity, result.Message)
		return
	case err != nil:
		h.logger.WithContext(logging.ChannelForms, c.Request.Context()).Error("Submission failed",
			"formId", req.FormID, "error", err.Error())
		h.fail(c, wantHTML, http.StatusInternalServerError, "Failed to process submission")
		return
	}

	status := http.StatusOK
	if !result.Accepted {
		status = http.StatusUnprocessableEntity
	}
	if !wantHTML {
		c.JSON(status, result)
		return
	}

	lang := c.Query("lang")
	if lang == "" {
		lang = result.Language
	}
	render := services.RenderRequest{
		Ref:      result.PageID,
		Language: lang,
		RecordID: result.RecordID,
		Mode:     rendering.ParseMode(c.Query("mode")),
		Document: true,
	}
	if result.Accepted {
		render.FormMessage = MessageAccepted
	} else {
		render.FormID = result.FormID
		render.FormMessage = result.Message
		render.FieldErrors = result.FieldErrors
	}
	page, err := h.fragmentService.Render(c.Request.Context(), render)
	if err != nil {
		h.logger.LogError(logging.ChannelRender, "render submission result", err, map[string]any{"pageId": result.PageID})
		c.JSON(status, result)
		return
	}
	c.Header(FormIDHeader, page.FormID)
	c.Data(status, "text/html; charset=utf-8", []byte(page.HTML))
}

func (h *FormHandlers) fail(c *gin.Context, wantHTML bool, status int, message string) {
	if wantHTML {
		c.Data(status, "text/html; charset=utf-8", []byte("<!DOCTYPE html><p role=\"alert\">"+html.EscapeString(message)+"</p>"))
		return
	}
	c.JSON(status, gin.H{"error": message})
}

// Stream handles GET /api/v1/forms/:formId/ws
func (h *FormHandlers) Stream(c *gin.Context) {
	formID := c.Param("formId")
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Forms().Debug("WebSocket upgrade failed", "formId", formID, "error", err.Error())
		return
	}
	client := h.broadcaster.AddClient(formID)
	h.logger.Forms().Debug("Form client connected", "formId", formID, "clients", h.broadcaster.ConnectionCount(formID))
	h.broadcaster.Serve(conn, client)
}

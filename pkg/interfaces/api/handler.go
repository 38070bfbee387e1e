package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/newwavedigital/ERP-sub000/pkg/application/dto"
	"github.com/newwavedigital/ERP-sub000/pkg/application/services/remediation"
	"github.com/newwavedigital/ERP-sub000/pkg/domain/entities"
	"github.com/newwavedigital/ERP-sub000/pkg/interfaces/cli/output"
)

// Calculator runs requirement and allocation calculations
type Calculator interface {
	Requirements(ctx context.Context, batchID string, lines []entities.OrderLine) (*dto.RequirementReport, error)
	Calculate(ctx context.Context, batchID string, lines []entities.OrderLine) (*dto.CalculationResult, error)
	AllocateOrder(ctx context.Context, orderID string) (*dto.CalculationResult, error)
}

// Remediator drives remediation sessions
type Remediator interface {
	Open(ctx context.Context, summary *entities.AllocationSummary) (*entities.SessionSnapshot, error)
	Get(ctx context.Context, sessionID string) (*entities.SessionSnapshot, error)
	Choose(ctx context.Context, sessionID string, index int, action entities.Action) (*entities.SessionSnapshot, error)
	Submit(ctx context.Context, sessionID string) (*remediation.SubmitResult, error)
	Defer(ctx context.Context, sessionID string) ([]entities.ShortfallAlert, error)
	RequestClientMaterial(ctx context.Context, summary *entities.AllocationSummary) ([]entities.ShortfallAlert, error)
}

// Handler serves the calculator API
type Handler struct {
	calc        Calculator
	remediation Remediator
	logger      *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(calc Calculator, remediator Remediator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{calc: calc, remediation: remediator, logger: logger}
}

// OrderLineRequest is one line of a batch request. Quantity accepts a
// number or a numeric string.
type OrderLineRequest struct {
	ID          string      `json:"id"`
	ProductID   string      `json:"product_id"`
	ProductName string      `json:"product_name"`
	Quantity    interface{} `json:"quantity"`
}

// BatchRequest is the body of the batch endpoints
type BatchRequest struct {
	Lines []OrderLineRequest `json:"lines" binding:"required"`
}

// ChooseRequest is the body of the line action endpoint
type ChooseRequest struct {
	Action string `json:"action"`
}

// Live GET /health/live
func (h *Handler) Live(c *gin.Context) {
	Success(c, gin.H{"status": "ok"})
}

// Requirements POST /api/v1/batches/:batchID/requirements
func (h *Handler) Requirements(c *gin.Context) {
	lines, ok := bindLines(c)
	if !ok {
		return
	}
	report, err := h.calc.Requirements(c.Request.Context(), c.Param("batchID"), lines)
	if err != nil {
		Fail(c, err, nil)
		return
	}
	Success(c, report)
}

// ExportRequirements POST /api/v1/batches/:batchID/requirements/export
func (h *Handler) ExportRequirements(c *gin.Context) {
	lines, ok := bindLines(c)
	if !ok {
		return
	}
	result, err := h.calc.Calculate(c.Request.Context(), c.Param("batchID"), lines)
	if err != nil {
		Fail(c, err, nil)
		return
	}

	f, err := output.Workbook(result)
	if err != nil {
		InternalError(c, "build workbook: "+err.Error())
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+output.WorkbookFilename(result)+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("failed to write workbook", zap.Error(err))
	}
}

// Calculate POST /api/v1/batches/:batchID/calculate
func (h *Handler) Calculate(c *gin.Context) {
	lines, ok := bindLines(c)
	if !ok {
		return
	}
	result, err := h.calc.Calculate(c.Request.Context(), c.Param("batchID"), lines)
	if err != nil {
		Fail(c, err, nil)
		return
	}
	Success(c, result)
}

// Allocate POST /api/v1/orders/:orderID/allocate
func (h *Handler) Allocate(c *gin.Context) {
	result, err := h.calc.AllocateOrder(c.Request.Context(), c.Param("orderID"))
	if err != nil {
		Fail(c, err, nil)
		return
	}
	Success(c, result)
}

// OpenSession POST /api/v1/orders/:orderID/remediation-sessions
func (h *Handler) OpenSession(c *gin.Context) {
	result, err := h.calc.AllocateOrder(c.Request.Context(), c.Param("orderID"))
	if err != nil {
		Fail(c, err, nil)
		return
	}
	snap, err := h.remediation.Open(c.Request.Context(), result.Summary)
	if err != nil {
		Fail(c, err, nil)
		return
	}
	Created(c, snap)
}

// RequestClientMaterial POST /api/v1/orders/:orderID/client-requests
func (h *Handler) RequestClientMaterial(c *gin.Context) {
	result, err := h.calc.AllocateOrder(c.Request.Context(), c.Param("orderID"))
	if err != nil {
		Fail(c, err, nil)
		return
	}
	alerts, err := h.remediation.RequestClientMaterial(c.Request.Context(), result.Summary)
	if err != nil {
		Fail(c, err, nil)
		return
	}
	if alerts == nil {
		alerts = []entities.ShortfallAlert{}
	}
	Created(c, gin.H{"items": alerts})
}

// GetSession GET /api/v1/remediation-sessions/:sessionID
func (h *Handler) GetSession(c *gin.Context) {
	snap, err := h.remediation.Get(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		Fail(c, err, nil)
		return
	}
	Success(c, snap)
}

// ChooseAction PUT /api/v1/remediation-sessions/:sessionID/lines/:index
func (h *Handler) ChooseAction(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		BadRequest(c, "line index must be an integer")
		return
	}

	var req ChooseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	action := entities.ActionNone
	if req.Action != "" {
		action, err = entities.ParseAction(req.Action)
		if err != nil {
			BadRequest(c, err.Error())
			return
		}
	}

	snap, err := h.remediation.Choose(c.Request.Context(), c.Param("sessionID"), index, action)
	if err != nil {
		Fail(c, err, nil)
		return
	}
	Success(c, snap)
}

// SubmitSession POST /api/v1/remediation-sessions/:sessionID/submit
func (h *Handler) SubmitSession(c *gin.Context) {
	result, err := h.remediation.Submit(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		Fail(c, err, result)
		return
	}
	Success(c, result)
}

// DeferSession POST /api/v1/remediation-sessions/:sessionID/defer
func (h *Handler) DeferSession(c *gin.Context) {
	alerts, err := h.remediation.Defer(c.Request.Context(), c.Param("sessionID"))
	if err != nil {
		Fail(c, err, nil)
		return
	}
	if alerts == nil {
		alerts = []entities.ShortfallAlert{}
	}
	Success(c, gin.H{"items": alerts})
}

func bindLines(c *gin.Context) ([]entities.OrderLine, bool) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return nil, false
	}

	lines := make([]entities.OrderLine, 0, len(req.Lines))
	for i, l := range req.Lines {
		if l.ProductID == "" && l.ProductName == "" {
			BadRequest(c, fmt.Sprintf("line %d has neither product_id nor product_name", i+1))
			return nil, false
		}
		id := l.ID
		if id == "" {
			id = fmt.Sprintf("L%d", i+1)
		}
		lines = append(lines, entities.NewOrderLine(id, l.ProductID, l.ProductName, l.Quantity))
	}
	return lines, true
}

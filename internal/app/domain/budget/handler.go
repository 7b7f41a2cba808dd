package budget

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/voyagr-planner/internal/app/models"
)

type AllocateRequest struct {
	Categories []models.BudgetCategory `json:"categories"`
	ID         string                  `json:"id" binding:"required"`
	Value      float64                 `json:"value"`
}

type AllocateResponse struct {
	Categories []models.BudgetCategory `json:"categories"`
	Sum        float64                 `json:"sum"`
}

type AmountsRequest struct {
	Categories []models.BudgetCategory `json:"categories"`
	Total      float64                 `json:"total" binding:"required,gt=0"`
	Travelers  int                     `json:"travelers"`
}

type AmountsResponse struct {
	Amounts   []models.CategoryAmount `json:"amounts"`
	PerPerson float64                 `json:"perPerson"`
}

type Handler struct {
	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

// Allocate godoc
// @Summary Move one budget slider
// @Description Sets one category percentage and rebalances the others to keep a sum of 100
// @Tags budget
// @Accept json
// @Produce json
// @Param request body AllocateRequest true "Current categories and the edit"
// @Success 200 {object} AllocateResponse
// @Failure 400 {object} map[string]string
// @Router /api/budget/allocate [post]
func (h *Handler) Allocate(c *gin.Context) {
	var req AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid allocate request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if len(req.Categories) == 0 {
		req.Categories = DefaultCategories()
	}

	out := SetCategoryValue(req.Categories, req.ID, req.Value)
	c.JSON(http.StatusOK, AllocateResponse{Categories: out, Sum: Sum(out)})
}

// Amounts godoc
// @Summary Budget amounts per category
// @Tags budget
// @Accept json
// @Produce json
// @Param request body AmountsRequest true "Categories, total and travelers"
// @Success 200 {object} AmountsResponse
// @Failure 400 {object} map[string]string
// @Router /api/budget/amounts [post]
func (h *Handler) Amounts(c *gin.Context) {
	var req AmountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid amounts request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if len(req.Categories) == 0 {
		req.Categories = DefaultCategories()
	}

	c.JSON(http.StatusOK, AmountsResponse{
		Amounts:   ComputeAmounts(req.Categories, req.Total),
		PerPerson: PerPersonBudget(req.Total, req.Travelers),
	})
}

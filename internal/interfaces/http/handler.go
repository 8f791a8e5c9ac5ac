package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	apppipeline "main/internal/application/service/pipeline"
	appproducts "main/internal/application/service/products"
	apptrading "main/internal/application/service/trading"
	domain "main/internal/domain/entity/trading"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	productsBasePath = "/api/v1/products"
	tradingBasePath  = "/api/v1/trading"
	runsBasePath     = "/api/v1/runs"
)

var (
	errMissingUPI    = errors.New("upi is required")
	errMissingTicker = errors.New("ticker query param required")
	errMissingRange  = errors.New("from/to query params required")
	errMissingDate   = errors.New("date is required (YYYY-MM-DD)")
)

type Handler struct {
	router   *gin.Engine
	trading  *apptrading.Service
	products *appproducts.Service
	pipeline *apppipeline.Service
	cache    *redis.Client
	cacheTTL time.Duration
}

func NewHandler(trading *apptrading.Service, products *appproducts.Service, pipeline *apppipeline.Service, cache *redis.Client, cacheTTL time.Duration) *Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	h := &Handler{
		router:   router,
		trading:  trading,
		products: products,
		pipeline: pipeline,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
	h.registerRoutes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	products := h.router.Group(productsBasePath)
	if h.cache != nil {
		products.Use(h.cacheMiddleware())
	}
	{
		products.POST("/", h.upsertProduct)
		products.PUT("/", h.upsertProduct)
		products.GET("/", h.listProducts)
		products.GET("/:upi", h.getProduct)
	}

	trading := h.router.Group(tradingBasePath)
	if h.cache != nil {
		trading.Use(h.cacheMiddleware())
	}
	{
		ticks := trading.Group("/ticks")
		{
			ticks.POST("/", h.addTick)
			ticks.POST("/batch", h.addTicksBatch)
			ticks.GET("/", h.getTicksRange)
		}

		reports := trading.Group("/reports")
		{
			reports.POST("/", h.addReport)
			reports.POST("/batch", h.addReportsBatch)
			reports.GET("/", h.getReportsRange)
		}

		trading.GET("/classified", h.getClassifiedRange)
	}

	h.router.POST(runsBasePath, h.runDay)
}

// Products handlers

func (h *Handler) upsertProduct(c *gin.Context) {
	var product domain.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.products.UpsertProduct(c.Request.Context(), &product); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, appproducts.ErrMissingUPI) || errors.Is(err, appproducts.ErrUnknownConvention) {
			status = http.StatusBadRequest
		}
		writeError(c, status, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) getProduct(c *gin.Context) {
	upi := c.Param("upi")
	if upi == "" {
		writeError(c, http.StatusBadRequest, errMissingUPI)
		return
	}
	product, err := h.products.GetProduct(c.Request.Context(), upi)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.products.ListProducts(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// Tick handlers

func (h *Handler) addTick(c *gin.Context) {
	var tick domain.MarketTick
	if err := c.ShouldBindJSON(&tick); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.trading.AddTick(c.Request.Context(), &tick); err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *Handler) addTicksBatch(c *gin.Context) {
	var ticks []domain.MarketTick
	if err := c.ShouldBindJSON(&ticks); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.trading.AddTicks(c.Request.Context(), ticks); err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *Handler) getTicksRange(c *gin.Context) {
	ticker := c.Query("ticker")
	if ticker == "" {
		writeError(c, http.StatusBadRequest, errMissingTicker)
		return
	}
	from, to, err := parseTimeRange(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, errMissingRange)
		return
	}
	ticks, err := h.trading.GetTicksBetween(c.Request.Context(), ticker, from, to)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, ticks)
}

// Report handlers

func (h *Handler) addReport(c *gin.Context) {
	var report domain.RawTradeReport
	if err := c.ShouldBindJSON(&report); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.trading.AddReport(c.Request.Context(), &report); err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *Handler) addReportsBatch(c *gin.Context) {
	var reports []domain.RawTradeReport
	if err := c.ShouldBindJSON(&reports); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.trading.AddReports(c.Request.Context(), reports); err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *Handler) getReportsRange(c *gin.Context) {
	from, to, err := parseTimeRange(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, errMissingRange)
		return
	}
	reports, err := h.trading.GetReportsBetween(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// Classification handlers

func (h *Handler) getClassifiedRange(c *gin.Context) {
	from, to, err := parseTimeRange(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, errMissingRange)
		return
	}
	trades, err := h.trading.GetClassifiedTradesBetween(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, trades)
}

type runPayload struct {
	Date       string `json:"date"`
	Ticker     string `json:"ticker,omitempty"`
	Convention string `json:"convention,omitempty"`
	UPI        string `json:"upi,omitempty"`
}

func (h *Handler) runDay(c *gin.Context) {
	var payload runPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}
	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		writeError(c, http.StatusBadRequest, errMissingDate)
		return
	}
	summary, err := h.pipeline.RunDay(c.Request.Context(), apppipeline.RunRequest{
		Date:       date,
		Ticker:     payload.Ticker,
		Convention: domain.QuoteConvention(payload.Convention),
		UPI:        payload.UPI,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, apppipeline.ErrMissingTicker) {
			status = http.StatusBadRequest
		}
		writeError(c, status, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Helpers

func writeError(c *gin.Context, status int, err error) {
	if err == nil {
		status = http.StatusInternalServerError
		err = errors.New("unknown error")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// cacheMiddleware caches GET responses in Redis.
func (h *Handler) cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cache == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := h.cacheKey(c)
		ctx := c.Request.Context()

		if cached, err := h.cache.Get(ctx, key).Result(); err == nil {
			c.Data(http.StatusOK, "application/json", []byte(cached))
			c.Abort()
			return
		}

		recorder := &responseRecorder{
			ResponseWriter: c.Writer,
			status:         http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = recorder

		c.Next()

		if recorder.status >= 200 && recorder.status < 300 && recorder.body.Len() > 0 {
			_ = h.cache.Set(ctx, key, recorder.body.Bytes(), h.cacheTTL).Err()
		}
	}
}

type responseRecorder struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if len(data) > 0 {
		r.body.Write(data)
	}
	return r.ResponseWriter.Write(data)
}

func (h *Handler) cacheKey(c *gin.Context) string {
	return fmt.Sprintf("cache:%s:%s?%s", c.Request.Method, c.FullPath(), c.Request.URL.RawQuery)
}

func parseTimeRange(c *gin.Context) (time.Time, time.Time, error) {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, errMissingRange
	}
	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

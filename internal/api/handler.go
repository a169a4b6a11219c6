package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mhorta/tfpulse/internal/domain/dto"
	"github.com/mhorta/tfpulse/internal/domain/models"
	"github.com/mhorta/tfpulse/internal/export"
	"github.com/mhorta/tfpulse/internal/middleware"
	"github.com/mhorta/tfpulse/internal/service"
	"github.com/mhorta/tfpulse/internal/timeframe"
)

// Handler provides HTTP handlers for the bar series endpoints.
//
// Responsibilities:
//   - Validate incoming HTTP query parameters
//   - Call the timeframe service for data access and conversion
//   - Translate series into response DTOs or downloadable files
//   - Return structured JSON responses with appropriate HTTP status codes
type Handler struct {
	svc service.TimeframeService
}

// NewHandler constructs a new Handler instance.
func NewHandler(svc service.TimeframeService) *Handler {
	return &Handler{svc: svc}
}

// respondError maps domain errors onto HTTP statuses: validation
// failures are 400, an unknown symbol or empty window is 404 and
// anything else is a 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrSymbolNotFound):
		middleware.AbortWithError(c, http.StatusNotFound, "no data found", err)
	case errors.Is(err, models.ErrUnsupportedTimeframe),
		errors.Is(err, timeframe.ErrInvalidConversion),
		errors.Is(err, timeframe.ErrNoTimeframes),
		errors.Is(err, timeframe.ErrMissingBaseSeries):
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid request", err)
	default:
		middleware.AbortWithError(c, http.StatusInternalServerError, "internal error", err)
	}
}

// symbolParam reads and normalizes the required "symbol" query param.
func symbolParam(c *gin.Context) (string, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))
	if symbol == "" {
		middleware.AbortWithError(c, http.StatusBadRequest, "symbol is required", nil)
		return "", false
	}
	return symbol, true
}

// timeframeParam parses a timeframe query param, falling back to def
// when the param is absent. An empty def makes the param required.
func timeframeParam(c *gin.Context, name, def string) (models.Timeframe, bool) {
	label := c.Query(name)
	if label == "" {
		if def == "" {
			middleware.AbortWithError(c, http.StatusBadRequest, name+" is required", nil)
			return models.Timeframe{}, false
		}
		label = def
	}
	tf, err := models.ParseTimeframe(label)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid "+name, err)
		return models.Timeframe{}, false
	}
	return tf, true
}

// windowParams parses the optional "start" and "end" query params.
// Both accept YYYY-MM-DD or RFC3339; end is exclusive.
func windowParams(c *gin.Context) (start, end *time.Time, ok bool) {
	parse := func(name string) (*time.Time, bool) {
		s := c.Query(name)
		if s == "" {
			return nil, true
		}
		for _, layout := range []string{"2006-01-02", time.RFC3339} {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.UTC()
				return &t, true
			}
		}
		middleware.AbortWithError(c, http.StatusBadRequest,
			fmt.Sprintf("invalid %s format, expected YYYY-MM-DD or RFC3339", name), nil)
		return nil, false
	}

	if start, ok = parse("start"); !ok {
		return nil, nil, false
	}
	if end, ok = parse("end"); !ok {
		return nil, nil, false
	}
	return start, end, true
}

// respondSeries writes a bar series either as the JSON DTO or, when
// the "format" query param is present, as a downloadable file.
func respondSeries(c *gin.Context, symbol string, tf models.Timeframe, s *models.Series) {
	if format := c.Query("format"); format != "" {
		respondDownload(c, format, symbol, tf.String(), s)
		return
	}
	resp, ok := dto.NewSeriesResponse(symbol, tf, s)
	if !ok {
		middleware.AbortWithError(c, http.StatusInternalServerError, "series is not bar-shaped", nil)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// respondDownload encodes a series with the named export writer and
// serves it as an attachment.
func respondDownload(c *gin.Context, format, symbol, name string, s *models.Series) {
	w, err := export.NewSeriesWriter(format)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid format", err)
		return
	}

	var buf bytes.Buffer
	if err := w.Write(&buf, symbol, s); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "cannot encode series", err)
		return
	}

	filename := fmt.Sprintf("%s_%s.%s", symbol, name, w.Extension())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, w.ContentType(), buf.Bytes())
}

// GetBars handles GET /api/v1/bars requests.
//
// GetBars godoc
// @Summary      Get stored bars
// @Description  Returns the stored OHLCV series for a symbol at one timeframe
// @Tags         bars
// @Produce      json
// @Param        symbol     query     string  true   "Instrument symbol" example(PETR4)
// @Param        timeframe  query     string  false  "Bar timeframe (default day)" example(15min)
// @Param        start      query     string  false  "Window start, inclusive (YYYY-MM-DD)" example(2024-01-02)
// @Param        end        query     string  false  "Window end, exclusive (YYYY-MM-DD)" example(2024-02-01)
// @Param        format     query     string  false  "Download format: csv, json, parquet or arrow"
// @Success      200        {object}  dto.SeriesResponse     "Success"
// @Failure      400        {object}  dto.ErrorResponse      "Bad Request"
// @Failure      404        {object}  dto.ErrorResponse      "Not Found"
// @Failure      500        {object}  dto.ErrorResponse      "Internal Error"
// @Router       /api/v1/bars [get]
func (h *Handler) GetBars(c *gin.Context) {
	symbol, ok := symbolParam(c)
	if !ok {
		return
	}
	tf, ok := timeframeParam(c, "timeframe", "day")
	if !ok {
		return
	}
	start, end, ok := windowParams(c)
	if !ok {
		return
	}

	s, err := h.svc.GetBars(c.Request.Context(), symbol, tf, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSeries(c, symbol, tf, s)
}

// Convert handles GET /api/v1/convert requests.
//
// Convert godoc
// @Summary      Convert bars to a coarser timeframe
// @Description  Loads bars stored at the source timeframe and aggregates them to the target
// @Tags         convert
// @Produce      json
// @Param        symbol  query     string  true   "Instrument symbol" example(PETR4)
// @Param        from    query     string  true   "Source timeframe" example(15min)
// @Param        to      query     string  true   "Target timeframe" example(day)
// @Param        start   query     string  false  "Window start, inclusive (YYYY-MM-DD)"
// @Param        end     query     string  false  "Window end, exclusive (YYYY-MM-DD)"
// @Param        format  query     string  false  "Download format: csv, json, parquet or arrow"
// @Success      200     {object}  dto.SeriesResponse     "Success"
// @Failure      400     {object}  dto.ErrorResponse      "Bad Request"
// @Failure      404     {object}  dto.ErrorResponse      "Not Found"
// @Failure      500     {object}  dto.ErrorResponse      "Internal Error"
// @Router       /api/v1/convert [get]
func (h *Handler) Convert(c *gin.Context) {
	symbol, ok := symbolParam(c)
	if !ok {
		return
	}
	from, ok := timeframeParam(c, "from", "")
	if !ok {
		return
	}
	to, ok := timeframeParam(c, "to", "")
	if !ok {
		return
	}
	start, end, ok := windowParams(c)
	if !ok {
		return
	}

	s, err := h.svc.Convert(c.Request.Context(), symbol, from, to, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSeries(c, symbol, to, s)
}

// ConvertBatch handles GET /api/v1/convert/batch requests.
//
// ConvertBatch godoc
// @Summary      Convert several symbols at once
// @Description  Converts each requested symbol from one timeframe to another; per-symbol failures are reported inline
// @Tags         convert
// @Produce      json
// @Param        symbols  query     string  false  "Comma-separated symbols; empty means all stored at the source timeframe" example(PETR4,VALE3)
// @Param        from     query     string  true   "Source timeframe" example(day)
// @Param        to       query     string  true   "Target timeframe" example(week)
// @Param        start    query     string  false  "Window start, inclusive (YYYY-MM-DD)"
// @Param        end      query     string  false  "Window end, exclusive (YYYY-MM-DD)"
// @Success      200      {object}  dto.BatchConvertResponse  "Success"
// @Failure      400      {object}  dto.ErrorResponse         "Bad Request"
// @Failure      500      {object}  dto.ErrorResponse         "Internal Error"
// @Router       /api/v1/convert/batch [get]
func (h *Handler) ConvertBatch(c *gin.Context) {
	from, ok := timeframeParam(c, "from", "")
	if !ok {
		return
	}
	to, ok := timeframeParam(c, "to", "")
	if !ok {
		return
	}
	start, end, ok := windowParams(c)
	if !ok {
		return
	}

	var symbols []string
	if raw := c.Query("symbols"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				symbols = append(symbols, s)
			}
		}
	}

	results, err := h.svc.ConvertBatch(c.Request.Context(), symbols, from, to, start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.BatchConvertResponse{
		From:    from.String(),
		To:      to.String(),
		Results: make(map[string]dto.SymbolResult, len(results)),
	}
	for sym, res := range results {
		if res.Err != nil {
			resp.Results[sym] = dto.SymbolResult{Error: res.Err.Error()}
			continue
		}
		bars, ok := res.Series.Bars()
		if !ok {
			resp.Results[sym] = dto.SymbolResult{Error: "series is not bar-shaped"}
			continue
		}
		out := dto.SymbolResult{Count: len(bars), Bars: make([]dto.BarDTO, len(bars))}
		for i, b := range bars {
			out.Bars[i] = dto.BarDTO{Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
		}
		resp.Results[sym] = out
	}

	c.JSON(http.StatusOK, resp)
}

// Merge handles GET /api/v1/merge requests.
//
// Merge godoc
// @Summary      Merge several timeframes into one frame
// @Description  Joins one symbol's series across timeframes on the finest timeframe's index. Mode "fast" forward-fills completed coarse bars (cheap, leaks ahead within a period); "accurate" recomputes coarse values row by row without look-ahead.
// @Tags         merge
// @Produce      json
// @Param        symbol      query     string  true   "Instrument symbol" example(PETR4)
// @Param        timeframes  query     string  true   "Comma-separated timeframes, finest first or in any order" example(15min,day,week)
// @Param        mode        query     string  false  "fast or accurate (default accurate)" example(accurate)
// @Param        start       query     string  false  "Window start, inclusive (YYYY-MM-DD)"
// @Param        end         query     string  false  "Window end, exclusive (YYYY-MM-DD)"
// @Param        format      query     string  false  "Download format: csv, json or arrow"
// @Success      200         {object}  dto.MergedResponse     "Success"
// @Failure      400         {object}  dto.ErrorResponse      "Bad Request"
// @Failure      404         {object}  dto.ErrorResponse      "Not Found"
// @Failure      500         {object}  dto.ErrorResponse      "Internal Error"
// @Router       /api/v1/merge [get]
func (h *Handler) Merge(c *gin.Context) {
	symbol, ok := symbolParam(c)
	if !ok {
		return
	}

	raw := c.Query("timeframes")
	if raw == "" {
		middleware.AbortWithError(c, http.StatusBadRequest, "timeframes is required", nil)
		return
	}
	var tfs []models.Timeframe
	for _, label := range strings.Split(raw, ",") {
		tf, err := models.ParseTimeframe(label)
		if err != nil {
			middleware.AbortWithError(c, http.StatusBadRequest, "invalid timeframes", err)
			return
		}
		tfs = append(tfs, tf)
	}

	mode := strings.ToLower(strings.TrimSpace(c.DefaultQuery("mode", "accurate")))
	if mode != "fast" && mode != "accurate" {
		middleware.AbortWithError(c, http.StatusBadRequest, "mode must be fast or accurate", nil)
		return
	}

	start, end, ok := windowParams(c)
	if !ok {
		return
	}

	s, err := h.svc.Merge(c.Request.Context(), symbol, tfs, start, end, mode == "fast")
	if err != nil {
		respondError(c, err)
		return
	}

	if format := c.Query("format"); format != "" {
		respondDownload(c, format, symbol, "merged", s)
		return
	}
	c.JSON(http.StatusOK, dto.NewMergedResponse(symbol, mode, s))
}

// ListSymbols handles GET /api/v1/symbols requests.
//
// ListSymbols godoc
// @Summary      List stored symbols
// @Description  Returns the symbols stored at a timeframe
// @Tags         bars
// @Produce      json
// @Param        timeframe  query     string  false  "Bar timeframe (default day)" example(day)
// @Success      200        {object}  map[string][]string  "Success"
// @Failure      400        {object}  dto.ErrorResponse    "Bad Request"
// @Failure      500        {object}  dto.ErrorResponse    "Internal Error"
// @Router       /api/v1/symbols [get]
func (h *Handler) ListSymbols(c *gin.Context) {
	tf, ok := timeframeParam(c, "timeframe", "day")
	if !ok {
		return
	}

	symbols, err := h.svc.ListSymbols(c.Request.Context(), tf)
	if err != nil {
		respondError(c, err)
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"timeframe": tf.String(), "symbols": symbols})
}

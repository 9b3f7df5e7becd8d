package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"go.uber.org/zap"

	"smacross/internal/engine"
	"smacross/internal/errs"
	"smacross/internal/md"
	"smacross/internal/report"
)

const (
	msgWelcome        = "Welcome to the Stock Trading API"
	msgDatesRequired  = "start date and end date are required"
	msgInvalidDate    = "Invalid date format. Use YYYY-MM-DD"
	msgDateOrder      = "start date must not be after end date"
	msgAlreadyRunning = "Stock monitoring already in progress. To check the report, use /report endpoint"
	msgHoliday        = "Looks like it is a holiday, please select a valid date"
	msgStarted        = "Stock monitoring started. Check /report endpoint for the report"
	msgStopped        = "Stock monitoring stopped. Check /report endpoint for the report"
	msgNothingToStop  = "No stock monitoring in progress"
)

type Options struct {
	// Lookback is the number of candles required before the start date.
	Lookback int
	// MaxLookbackDays bounds the backward search for lookback candles.
	MaxLookbackDays int
}

// Server exposes one Driver over HTTP.
type Server struct {
	driver  *engine.Driver
	fetcher md.Fetcher
	opts    Options
	log     *zap.SugaredLogger
	decoder *schema.Decoder
}

type tradeQuery struct {
	StartDate string `schema:"startDate"`
	EndDate   string `schema:"endDate"`
}

func New(driver *engine.Driver, fetcher md.Fetcher, opts Options, log *zap.SugaredLogger) *Server {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &Server{
		driver:  driver,
		fetcher: fetcher,
		opts:    opts,
		log:     log,
		decoder: decoder,
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.logRequests)
	router.HandleFunc("/", s.home).Methods(http.MethodGet)
	router.HandleFunc("/trade", s.trade).Methods(http.MethodGet)
	router.HandleFunc("/report", s.report).Methods(http.MethodGet)
	router.HandleFunc("/stop", s.stop).Methods(http.MethodPost)
	return router
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debugw("http request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(started))
	})
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(msgWelcome))
}

func (s *Server) trade(w http.ResponseWriter, r *http.Request) {
	var query tradeQuery
	if err := s.decoder.Decode(&query, r.URL.Query()); err != nil {
		setErrorResponse(http.StatusBadRequest, err.Error(), w)
		return
	}
	if query.StartDate == "" || query.EndDate == "" {
		setErrorResponse(http.StatusBadRequest, msgDatesRequired, w)
		return
	}
	if !md.ValidDate(query.StartDate) || !md.ValidDate(query.EndDate) {
		setErrorResponse(http.StatusBadRequest, msgInvalidDate, w)
		return
	}
	if s.driver.Status().Status == engine.Running {
		setErrorResponse(http.StatusBadRequest, msgAlreadyRunning, w)
		return
	}

	from, _ := md.ParseDate(query.StartDate)
	to, _ := md.ParseDate(query.EndDate)
	if from.After(to) {
		setErrorResponse(http.StatusBadRequest, msgDateOrder, w)
		return
	}

	candles, err := s.fetcher.FetchPriceSeries(r.Context(), from, to)
	if err != nil {
		if errs.KindOf(err) == errs.Unknown {
			err = errs.Wrapf(errs.UpstreamFetch, err, "fetch %s to %s", query.StartDate, query.EndDate)
		}
		s.log.Errorw("failed to fetch price series", "from", query.StartDate, "to", query.EndDate, "error", err)
		setErrorResponse(statusFor(err), err.Error(), w)
		return
	}
	if len(candles) == 0 {
		setErrorResponse(http.StatusBadRequest, msgHoliday, w)
		return
	}

	seed, err := md.SeedWindow(r.Context(), s.fetcher, from, s.opts.Lookback, s.opts.MaxLookbackDays)
	if err != nil {
		s.log.Errorw("failed to collect lookback candles", "from", query.StartDate, "need", s.opts.Lookback, "error", err)
		setErrorResponse(statusFor(err), err.Error(), w)
		return
	}

	if err := s.driver.Launch(seed, candles); err != nil {
		switch {
		case errs.Is(err, errs.AlreadyRunning):
			setErrorResponse(http.StatusBadRequest, msgAlreadyRunning, w)
		case errs.Is(err, errs.InvalidRange):
			setErrorResponse(http.StatusBadRequest, msgHoliday, w)
		default:
			s.log.Errorw("failed to launch simulation", "error", err)
			setErrorResponse(statusFor(err), err.Error(), w)
		}
		return
	}

	if err := setResponse(response{Status: statusSuccess, Message: msgStarted}, w); err != nil {
		s.log.Warnw("failed to write response", "error", err)
	}
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	info, state := s.driver.View()
	if err := setResponse(report.Render(info, state), w); err != nil {
		s.log.Warnw("failed to write report", "error", err)
	}
}

func (s *Server) stop(w http.ResponseWriter, r *http.Request) {
	if !s.driver.Stop() {
		setErrorResponse(http.StatusConflict, msgNothingToStop, w)
		return
	}
	if err := setResponse(response{Status: statusSuccess, Message: msgStopped}, w); err != nil {
		s.log.Warnw("failed to write response", "error", err)
	}
}

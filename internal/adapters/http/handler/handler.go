// Package handler は階層 API を HTTP/JSON で公開します。
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/ogurasousui/nomina/internal/core/bank"
	"github.com/ogurasousui/nomina/internal/core/division"
	"github.com/ogurasousui/nomina/internal/core/domain"
	"github.com/ogurasousui/nomina/internal/core/employee"
	"github.com/ogurasousui/nomina/internal/core/job"
	"github.com/ogurasousui/nomina/internal/core/organization"
	"github.com/ogurasousui/nomina/internal/core/payroll"
	"github.com/ogurasousui/nomina/internal/platform/logging"
	"github.com/ogurasousui/nomina/internal/platform/metrics"
)

const maxBodyBytes = 1 << 20

// Services は HTTP 層から呼び出すユースケースです。
type Services struct {
	Organizations organization.UseCase
	Payrolls      payroll.UseCase
	Divisions     division.UseCase
	Jobs          job.UseCase
	Banks         bank.UseCase
	Employees     employee.UseCase
}

// Handler はユースケースを HTTP ハンドラとして公開します。
type Handler struct {
	svc      Services
	metrics  *metrics.Metrics
	validate *validator.Validate
}

// New は Handler を生成します。m は nil でも構いません。
func New(svc Services, m *metrics.Metrics) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{svc: svc, metrics: m, validate: v}
}

// NewRouter はミドルウェアとルーティングを構成した http.Handler を返します。
func NewRouter(svc Services, logger zerolog.Logger, m *metrics.Metrics) http.Handler {
	h := New(svc, m)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(middleware.Recoverer)

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Routes(r)
	return r
}

// Routes は API のルートを r に登録します。
func (h *Handler) Routes(r chi.Router) {
	r.Route("/organizations", func(r chi.Router) {
		r.Get("/", h.listOrganizations)
		r.Post("/", h.createOrganization)
		r.Route("/{organizationID}", func(r chi.Router) {
			r.Get("/", h.getOrganization)
			r.Patch("/", h.updateOrganization)
			r.Delete("/", h.deleteOrganization)

			r.Route("/payrolls", func(r chi.Router) {
				r.Get("/", h.listPayrolls)
				r.Post("/", h.createPayroll)
				r.Get("/{payrollID}", h.getPayroll)
				r.Patch("/{payrollID}", h.updatePayroll)
				r.Delete("/{payrollID}", h.deletePayroll)
			})

			r.Route("/banks", func(r chi.Router) {
				r.Get("/", h.listBanks)
				r.Post("/", h.createBank)
				r.Get("/{bankID}", h.getBank)
				r.Patch("/{bankID}", h.updateBank)
				r.Delete("/{bankID}", h.deleteBank)
			})
		})
	})

	r.Route("/payrolls/{payrollID}", func(r chi.Router) {
		r.Route("/divisions", func(r chi.Router) {
			r.Get("/", h.listDivisions)
			r.Post("/", h.createDivision)
			r.Get("/{divisionID}", h.getDivision)
			r.Patch("/{divisionID}", h.updateDivision)
			r.Delete("/{divisionID}", h.deleteDivision)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.listJobs)
			r.Post("/", h.createJob)
			r.Get("/{jobID}", h.getJob)
			r.Patch("/{jobID}", h.updateJob)
			r.Delete("/{jobID}", h.deleteJob)
		})
	})

	r.Route("/divisions/{divisionID}/employees", func(r chi.Router) {
		r.Get("/", h.listEmployees)
		r.Post("/", h.createEmployee)
		r.Get("/{employeeID}", h.getEmployee)
		r.Patch("/{employeeID}", h.updateEmployee)
		r.Delete("/{employeeID}", h.deleteEmployee)
	})
}

// decode は JSON ボディを dst に読み込み、構造体タグで検証します。
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Invalid("body", "is required")
		}
		return &domain.Error{Kind: domain.KindInvalid, Message: "body is not valid JSON", Err: err}
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			reason := "failed " + fe.Tag()
			if fe.Param() != "" {
				reason += "=" + fe.Param()
			}
			return domain.Invalid(fe.Field(), reason)
		}
		return domain.Invalid("body", err.Error())
	}
	return nil
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// statusFor はエラー種別を HTTP ステータスに変換します。
func statusFor(kind domain.Kind) int {
	switch {
	case kind.IsNotFound():
		return http.StatusNotFound
	case kind == domain.KindConflict, kind == domain.KindHasDependents:
		return http.StatusConflict
	case kind == domain.KindCrossPayrollParent,
		kind == domain.KindSelfParent,
		kind == domain.KindCycleDetected,
		kind == domain.KindCrossScopeReference:
		return http.StatusUnprocessableEntity
	case kind == domain.KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	h.metrics.ObserveDomainError(string(kind))

	message := err.Error()
	if status == http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		message = "internal server error"
	}

	writeJSON(w, status, errorResponse{Error: errorBody{Kind: string(kind), Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// optional は PATCH で「未指定」と「null」を区別するための型です。
type optional[T any] struct {
	Set   bool
	Value *T
}

func (o *optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

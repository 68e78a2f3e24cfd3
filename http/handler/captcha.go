package handler

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/leeforge/captchakit/captcha"
	"github.com/leeforge/captchakit/errors"
	"github.com/leeforge/captchakit/http/binding"
	httpmw "github.com/leeforge/captchakit/http/middleware"
	"github.com/leeforge/captchakit/http/responder"
	"github.com/leeforge/captchakit/logging"
	"github.com/leeforge/captchakit/session"
	"go.uber.org/zap"
)

// Handler 验证码 HTTP 处理器
type Handler struct {
	svc    *captcha.Service
	logger logging.Logger
}

// CheckRequest 校验请求体，支持 JSON 与表单
//
// An empty or missing response is not rejected; it is checked like any other
// wrong answer and counted as invalid.
type CheckRequest struct {
	Response string `json:"response" form:"response"`
}

// CheckResponse 校验结果
type CheckResponse struct {
	Valid        bool `json:"valid"`
	Promoted     bool `json:"promoted"`
	ValidCount   int  `json:"validCount"`
	InvalidCount int  `json:"invalidCount"`
}

// IssueResponse 签发结果，图片以 data URI 内联
type IssueResponse struct {
	Group string        `json:"group"`
	Style captcha.Style `json:"style"`
	HTML  string        `json:"html"`
	Image string        `json:"image,omitempty"`
}

func took(r *http.Request) responder.Option {
	return responder.WithTook(httpmw.RequestDuration(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.FromError(err).HTTPStatus >= http.StatusInternalServerError {
		logging.WithContext(h.logger, r.Context()).Error("request failed", zap.Error(err))
	}
	responder.Fail(w, r, err, took(r))
}

// Issue GET /captcha/{group}
func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	issued, err := h.svc.Issue(r.Context(), chi.URLParam(r, "group"), session.IDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	resp := IssueResponse{Group: issued.Group, Style: issued.Style, HTML: issued.HTML}
	if issued.Style == captcha.StyleImage {
		resp.Image = "data:" + issued.ContentType + ";base64," + base64.StdEncoding.EncodeToString(issued.Body)
	}
	responder.OK(w, r, resp, took(r))
}

// Image GET /captcha/{group}/image
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	issued, err := h.svc.Issue(r.Context(), chi.URLParam(r, "group"), session.IDFromContext(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	responder.WriteRaw(w, http.StatusOK, issued.ContentType, issued.Body)
}

// Check POST /captcha/{group}/check
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := binding.Bind(r, &req); err != nil {
		if ve, ok := err.(binding.ValidationErrors); ok {
			responder.ValidationError(w, r, ve, took(r))
			return
		}
		responder.BindError(w, r, err, took(r))
		return
	}

	group, sid := chi.URLParam(r, "group"), session.IDFromContext(r.Context())
	valid, err := h.svc.Check(r.Context(), group, sid, req.Response)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.svc.Status(r.Context(), group, sid)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	responder.OK(w, r, CheckResponse{
		Valid:        valid,
		Promoted:     st.Promoted,
		ValidCount:   st.ValidCount,
		InvalidCount: st.InvalidCount,
	}, took(r))
}

// Status GET /captcha/{group}/status[?threshold=N]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	group, sid := chi.URLParam(r, "group"), session.IDFromContext(r.Context())
	st, err := h.svc.Status(r.Context(), group, sid)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if raw := r.URL.Query().Get("threshold"); raw != "" {
		threshold, err := strconv.Atoi(raw)
		if err != nil || threshold < 1 {
			h.fail(w, r, errors.NewValidation("threshold must be a positive integer").WithDetail("threshold", raw))
			return
		}
		sess, err := h.svc.Session(r.Context(), group, sid)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if st.Promoted, err = sess.PromotedAt(r.Context(), threshold); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	responder.OK(w, r, st, took(r))
}

// Reset DELETE /captcha/{group}/counts
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reset(r.Context(), chi.URLParam(r, "group"), session.IDFromContext(r.Context())); err != nil {
		h.fail(w, r, err)
		return
	}
	responder.NoContent(w, r)
}

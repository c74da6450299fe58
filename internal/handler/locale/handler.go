package locale

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devcoregroup/lox/backend/internal/i18n"
	"github.com/devcoregroup/lox/backend/internal/model/lead"
	"github.com/devcoregroup/lox/backend/pkg/utils"
)

// Handler 提供语言包和联系方式列表，供客户端静态渲染。
type Handler struct{}

// New 创建locale处理器
func New() *Handler {
	return &Handler{}
}

// RegisterRoutes 注册locale相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/languages", h.handleListLanguages)
	r.Get("/locales/{lang}", h.handleBundle)
	r.Get("/contact-methods", h.handleContactMethods)
}

type languageInfo struct {
	Code i18n.Language `json:"code"`
	Name string        `json:"name"`
}

func (h *Handler) handleListLanguages(w http.ResponseWriter, _ *http.Request) {
	langs := i18n.Languages()
	out := make([]languageInfo, 0, len(langs))
	for _, l := range langs {
		out = append(out, languageInfo{Code: l, Name: l.DisplayName()})
	}
	utils.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) handleBundle(w http.ResponseWriter, r *http.Request) {
	lang, err := i18n.ParseLanguage(chi.URLParam(r, "lang"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, i18n.Bundle(lang))
}

type contactMethodInfo struct {
	Value       lead.ContactMethod `json:"value"`
	InputType   string             `json:"inputType"`
	Placeholder string             `json:"placeholder"`
}

// handleContactMethods lists the methods in form order. ?lang= localizes the
// placeholders and defaults to English.
func (h *Handler) handleContactMethods(w http.ResponseWriter, r *http.Request) {
	lang := i18n.EN
	if raw := r.URL.Query().Get("lang"); raw != "" {
		parsed, err := i18n.ParseLanguage(raw)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		lang = parsed
	}

	methods := lead.ContactMethods()
	out := make([]contactMethodInfo, 0, len(methods))
	for _, m := range methods {
		out = append(out, contactMethodInfo{
			Value:       m,
			InputType:   m.InputType(),
			Placeholder: i18n.Text(m.PlaceholderKey(), lang),
		})
	}
	utils.RespondJSON(w, http.StatusOK, out)
}

package internal

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/kumar303/metaplace/pkg/parser"
	"github.com/kumar303/metaplace/pkg/utils"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const sessionTrustedKey = "mozillian"

// TransitionLog reads back persisted build transitions for display.
type TransitionLog interface {
	Recent(ctx context.Context, limit int64) ([]TransitionEvent, error)
}

type DashboardHandler struct {
	ci       *CIAdapter
	tiers    *TierAdapter
	logs     LogSource
	verifier *Verifier
	sessions *session.Store
	events   TransitionLog
}

func NewDashboardHandler(ci *CIAdapter, tiers *TierAdapter, logs LogSource, verifier *Verifier, sessions *session.Store, events TransitionLog) *DashboardHandler {
	return &DashboardHandler{
		ci:       ci,
		tiers:    tiers,
		logs:     logs,
		verifier: verifier,
		sessions: sessions,
		events:   events,
	}
}

func (h *DashboardHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/", h.Index)
	app.Get("/build/", h.Build)
	app.Get("/build/history/", h.BuildHistory)
	app.Get("/debug/", h.Debug)
	app.Get("/tiers/", h.Tiers)
	app.Get("/tiers/:env/", h.Tiers)
	app.Get("/transactions/", h.Transactions)
	app.Get("/transactions/:env/:date/", h.Transactions)
	app.Get("/manifest.webapp", h.Manifest)
	app.Post("/auth/login", h.Login)
	app.All("/auth/logout", h.Logout)
}

// STSMiddleware adds the transport-security header to every response.
func STSMiddleware(c *fiber.Ctx) error {
	err := c.Next()
	c.Set("Strict-Transport-Security", "max-age=31536000")
	return err
}

// ErrorHandler maps domain errors onto the dashboard's failure responses:
// 403 before any work happens, 500 when an upstream is down. Anything else
// keeps fiber's defaults.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	if code >= 500 {
		slog.Error("request failed", "path", c.Path(), "err", err)
	}

	if wantsJSON(c) {
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}

	page, renderErr := renderPage("error", fiber.Map{"Code": code, "Message": err.Error()})
	if renderErr != nil {
		return c.Status(code).SendString(err.Error())
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(code).SendString(page)
}

func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts("text/html", "application/json") == "application/json"
}

func (h *DashboardHandler) Index(c *fiber.Ctx) error {
	return h.sendPage(c, "index", nil)
}

func (h *DashboardHandler) Build(c *fiber.Ctx) error {
	result, passing, err := h.ci.Check(c.Context())
	if err != nil {
		return err
	}

	if wantsJSON(c) {
		return c.JSON(fiber.Map{"all": passing, "result": result})
	}

	return h.sendPage(c, "build", fiber.Map{
		"All":  passing,
		"When": result.When.Format(time.RFC3339),
		"Jobs": result.SortedJobs(),
	})
}

// BuildHistory lists the recently recorded overall-status flips.
func (h *DashboardHandler) BuildHistory(c *fiber.Ctx) error {
	if h.events == nil {
		return c.JSON(fiber.Map{"transitions": []TransitionEvent{}})
	}

	transitions, err := h.events.Recent(c.Context(), 20)
	if err != nil {
		return err
	}
	if transitions == nil {
		transitions = []TransitionEvent{}
	}
	return c.JSON(fiber.Map{"transitions": transitions})
}

func (h *DashboardHandler) Tiers(c *fiber.Ctx) error {
	env := c.Params("env")
	if env == "" {
		return h.sendPage(c, "tiers", fiber.Map{})
	}

	tiers, err := h.tiers.Tiers(c.Context(), env)
	if err != nil {
		return err
	}

	regionOrder := make([]int, 0, len(Regions))
	for region := range Regions {
		regionOrder = append(regionOrder, region)
	}
	sort.Ints(regionOrder)

	if wantsJSON(c) {
		return c.JSON(fiber.Map{"objects": tiers, "regions": Regions, "methods": Methods})
	}

	return h.sendPage(c, "tiers", fiber.Map{
		"Env":         env,
		"Tiers":       tiers,
		"Regions":     Regions,
		"RegionOrder": regionOrder,
		"Methods":     Methods,
	})
}

func (h *DashboardHandler) Transactions(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return err
	}
	if trusted, _ := sess.Get(sessionTrustedKey).(bool); !trusted {
		return fiber.ErrForbidden
	}

	dates := utils.RecentDays(time.Now(), 3)
	env, date := c.Params("env"), c.Params("date")
	if env == "" || date == "" {
		return h.sendPage(c, "transactions", fiber.Map{"Dates": dates})
	}

	day, err := parser.ParseDay(date)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "bad date, want YYYY-MM-DD")
	}
	date = parser.FormatDay(day)

	raw, err := h.logs.Fetch(c.Context(), env, date)
	if err != nil {
		return err
	}

	parsed, err := ReadLog(bytes.NewReader(raw))
	if err != nil {
		return errors.Join(ErrSourceUnavailable, err)
	}

	stats := Aggregate(parsed.Records)
	stats.Skipped.Unreadable = parsed.Diagnostics.Unreadable

	if wantsJSON(c) {
		return c.JSON(fiber.Map{
			"rows":     parsed.Records,
			"stats":    stats,
			"statuses": Statuses,
		})
	}

	return h.sendPage(c, "transactions", fiber.Map{
		"Env":      env,
		"Date":     date,
		"Dates":    dates,
		"Stats":    stats,
		"Statuses": Statuses,
	})
}

// Debug dumps the request headers as seen behind the load balancer.
func (h *DashboardHandler) Debug(c *fiber.Ctx) error {
	return h.sendPage(c, "debug", fiber.Map{"Headers": c.GetReqHeaders()})
}

func (h *DashboardHandler) Manifest(c *fiber.Ctx) error {
	manifest, err := sonic.Marshal(fiber.Map{
		"name":           "Metaplace",
		"description":    "Information about the marketplace",
		"launch_path":    "/",
		"icons":          fiber.Map{"128": "/img/icon-128.png"},
		"developer":      fiber.Map{"name": "Marketplace Ops", "url": "https://mozilla.org"},
		"default_locale": "en",
	})
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/x-web-app-manifest+json")
	return c.Send(manifest)
}

func (h *DashboardHandler) Login(c *fiber.Ctx) error {
	assertion := c.FormValue("assertion")
	if assertion == "" {
		return fiber.NewError(fiber.StatusBadRequest, "assertion required")
	}

	email, trusted, err := h.verifier.Verify(c.Context(), assertion)
	if errors.Is(err, ErrAssertionRejected) {
		return fiber.NewError(fiber.StatusForbidden, "assertion rejected")
	}
	if err != nil {
		return err
	}

	sess, err := h.sessions.Get(c)
	if err != nil {
		return err
	}
	sess.Set("email", email)
	sess.Set(sessionTrustedKey, trusted)
	if err := sess.Save(); err != nil {
		return err
	}

	return c.SendString("You are logged in")
}

func (h *DashboardHandler) Logout(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Destroy(); err != nil {
		return err
	}
	return c.SendString("You are logged out")
}

func (h *DashboardHandler) sendPage(c *fiber.Ctx, name string, data any) error {
	page, err := renderPage(name, data)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(http.StatusOK).SendString(page)
}

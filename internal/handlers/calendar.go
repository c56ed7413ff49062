package handlers

import (
	"time"

	"healthcare-portal/internal/appointments"
	"healthcare-portal/internal/calendar"
	"healthcare-portal/internal/models"
	"healthcare-portal/internal/utils"
	"healthcare-portal/internal/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	promptSelectDay      = "Select a day to see its appointments."
	promptNoAppointments = "No appointments scheduled for this day."
)

// CalendarHandler handles the appointment calendar view.
type CalendarHandler struct {
	Registry  *views.Registry
	LoginPath string
	Log       *zap.Logger
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(registry *views.Registry, loginPath string, logger *zap.Logger) *CalendarHandler {
	return &CalendarHandler{Registry: registry, LoginPath: loginPath, Log: logger}
}

// AppointmentView is an appointment as the calendar displays it.
type AppointmentView struct {
	models.Appointment
	// Time is the local time of day, e.g. "09:00".
	Time   string `json:"time"`
	Online bool   `json:"online"`
}

// DayCell is one day of the month grid.
type DayCell struct {
	Day      int  `json:"day"`
	Count    int  `json:"count"`
	Selected bool `json:"selected"`
	Today    bool `json:"today"`
}

// MonthRender is the month grid with per-day appointment counts.
type MonthRender struct {
	appointments.Grid
	Days []DayCell `json:"days"`
}

// DayRender lists one day's appointments, or a prompt when there is nothing to list.
type DayRender struct {
	Date         *calendar.Date    `json:"date"`
	Appointments []AppointmentView `json:"appointments"`
	Prompt       string            `json:"prompt,omitempty"`
}

// CalendarRender is the full calendar payload for the current state.
type CalendarRender struct {
	State     calendar.State `json:"state"`
	Timezone  string         `json:"timezone"`
	Month     *MonthRender   `json:"month,omitempty"`
	Day       *DayRender     `json:"day,omitempty"`
	LastEvent *views.Event   `json:"lastEvent,omitempty"`
}

// SelectDayRequest represents the request body for selecting a day.
type SelectDayRequest struct {
	Date string `json:"date" binding:"required"`
}

// SetViewModeRequest represents the request body for switching view mode.
type SetViewModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// MonthQuery selects a month to render without moving the cursor.
type MonthQuery struct {
	Year  int    `form:"year" binding:"required,min=1,max=9999"`
	Month int    `form:"month" binding:"required,min=1,max=12"`
	TZ    string `form:"tz"`
}

// DayQuery selects a day to render without moving the cursor.
type DayQuery struct {
	Date string `form:"date" binding:"required"`
	TZ   string `form:"tz"`
}

// GetCalendar renders the current calendar state.
func (h *CalendarHandler) GetCalendar(c *gin.Context) {
	view, _, ok := currentView(c, h.Registry, h.Log, h.LoginPath)
	if !ok {
		return
	}
	h.respondState(c, view, view.Calendar.State(), "Calendar retrieved successfully")
}

// PreviousMonth moves the cursor back one month.
func (h *CalendarHandler) PreviousMonth(c *gin.Context) {
	view, _, ok := currentView(c, h.Registry, h.Log, h.LoginPath)
	if !ok {
		return
	}
	h.respondState(c, view, view.Calendar.PreviousMonth(), "Moved to previous month")
}

// NextMonth moves the cursor forward one month.
func (h *CalendarHandler) NextMonth(c *gin.Context) {
	view, _, ok := currentView(c, h.Registry, h.Log, h.LoginPath)
	if !ok {
		return
	}
	h.respondState(c, view, view.Calendar.NextMonth(), "Moved to next month")
}

// Today moves the cursor to the current month and selects today.
func (h *CalendarHandler) Today(c *gin.Context) {
	view, _, ok := currentView(c, h.Registry, h.Log, h.LoginPath)
	if !ok {
		return
	}
	h.respondState(c, view, view.Calendar.Today(), "Moved to today")
}

// SelectDay selects a day and switches to day view.
func (h *CalendarHandler) SelectDay(c *gin.Context) {
	var req SelectDayRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD: "+req.Date)
		return
	}

	view, _, ok := currentView(c, h.Registry, h.Log, h.LoginPath)
	if !ok {
		return
	}
	h.respondState(c, view, view.Calendar.SelectDay(date), "Day selected")
}

// SetViewMode switches between month and day view.
func (h *CalendarHandler) SetViewMode(c *gin.Context) {
	var req SetViewModeRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	mode, err := calendar.ParseViewMode(req.Mode)
	if err != nil {
		utils.BadRequest(c, "Invalid view mode, expected month or day: "+req.Mode)
		return
	}

	view, _, ok := currentView(c, h.Registry, h.Log, h.LoginPath)
	if !ok {
		return
	}
	h.respondState(c, view, view.Calendar.SetViewMode(mode), "View mode updated")
}

// GetMonth renders any month's grid. The cursor is not moved.
func (h *CalendarHandler) GetMonth(c *gin.Context) {
	var q MonthQuery
	if !utils.BindQueryAndValidate(c, &q) {
		return
	}
	view, viewer, ok := currentView(c, h.Registry, h.Log, h.LoginPath)
	if !ok {
		return
	}
	loc, ok := h.location(c, q.TZ, view.Location)
	if !ok {
		return
	}

	appts, err := h.Registry.Appointments(c.Request.Context(), viewer.UserID)
	if err != nil {
		respondError(c, h.Log, h.LoginPath, err)
		return
	}
	state := view.Calendar.State()
	utils.Success(c, "Month retrieved successfully",
		h.renderMonth(appts, q.Year, time.Month(q.Month), state.SelectedDay, loc))
}

// GetDay renders any day's appointments. The cursor is not moved.
func (h *CalendarHandler) GetDay(c *gin.Context) {
	var q DayQuery
	if !utils.BindQueryAndValidate(c, &q) {
		return
	}
	date, err := calendar.ParseDate(q.Date)
	if err != nil {
		utils.BadRequest(c, "Invalid date, expected YYYY-MM-DD: "+q.Date)
		return
	}
	view, viewer, ok := currentView(c, h.Registry, h.Log, h.LoginPath)
	if !ok {
		return
	}
	loc, ok := h.location(c, q.TZ, view.Location)
	if !ok {
		return
	}

	appts, err := h.Registry.Appointments(c.Request.Context(), viewer.UserID)
	if err != nil {
		respondError(c, h.Log, h.LoginPath, err)
		return
	}
	utils.Success(c, "Day retrieved successfully", renderDay(appts, &date, loc))
}

// ClickAppointment reports an appointment click to the view's listener. The
// calendar state does not change.
func (h *CalendarHandler) ClickAppointment(c *gin.Context) {
	view, viewer, ok := currentView(c, h.Registry, h.Log, h.LoginPath)
	if !ok {
		return
	}

	appts, err := h.Registry.Appointments(c.Request.Context(), viewer.UserID)
	if err != nil {
		respondError(c, h.Log, h.LoginPath, err)
		return
	}

	id := c.Param("id")
	for _, a := range appts {
		if a.ID != id {
			continue
		}
		view.Calendar.ClickAppointment(a)
		ev, _ := view.LastEvent()
		utils.Success(c, "Appointment opened", gin.H{
			"appointment": toAppointmentView(a, view.Location),
			"event":       ev,
		})
		return
	}
	utils.NotFound(c, "Appointment not found")
}

func (h *CalendarHandler) respondState(c *gin.Context, view *views.View, state calendar.State, message string) {
	loc, ok := h.location(c, c.Query("tz"), view.Location)
	if !ok {
		return
	}

	appts, err := h.Registry.Appointments(c.Request.Context(), view.Viewer.UserID)
	if err != nil {
		respondError(c, h.Log, h.LoginPath, err)
		return
	}

	render := CalendarRender{State: state, Timezone: loc.String()}
	switch state.ViewMode {
	case calendar.ViewDay:
		render.Day = renderDay(appts, state.SelectedDay, loc)
	default:
		render.Month = h.renderMonth(appts, state.Year, state.Month, state.SelectedDay, loc)
	}
	if ev, ok := view.LastEvent(); ok {
		render.LastEvent = &ev
	}
	utils.Success(c, message, render)
}

// location resolves the tz query parameter, falling back to def.
func (h *CalendarHandler) location(c *gin.Context, tz string, def *time.Location) (*time.Location, bool) {
	if tz == "" {
		if def == nil {
			def = time.UTC
		}
		return def, true
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		utils.BadRequest(c, "Unknown time zone: "+tz)
		return nil, false
	}
	return loc, true
}

func (h *CalendarHandler) renderMonth(appts []models.Appointment, year int, month time.Month, selected *calendar.Date, loc *time.Location) *MonthRender {
	grid := appointments.MonthGrid(year, month, loc)
	counts := appointments.CountByDay(appointments.BucketByMonth(appts, grid.Year, grid.Month, loc))
	today := calendar.DateOf(h.Registry.Now().In(loc))

	days := make([]DayCell, grid.DaysInMonth)
	for i := range days {
		d := calendar.Date{Year: grid.Year, Month: grid.Month, Day: i + 1}
		days[i] = DayCell{
			Day:      d.Day,
			Count:    counts[d.Day],
			Selected: selected != nil && *selected == d,
			Today:    today == d,
		}
	}
	return &MonthRender{Grid: grid, Days: days}
}

func renderDay(appts []models.Appointment, date *calendar.Date, loc *time.Location) *DayRender {
	if date == nil {
		return &DayRender{Appointments: []AppointmentView{}, Prompt: promptSelectDay}
	}
	list := appointments.FilterByDay(appts, date.Year, date.Month, date.Day, loc)
	render := &DayRender{Date: date, Appointments: make([]AppointmentView, len(list))}
	for i, a := range list {
		render.Appointments[i] = toAppointmentView(a, loc)
	}
	if len(list) == 0 {
		render.Prompt = promptNoAppointments
	}
	return render
}

func toAppointmentView(a models.Appointment, loc *time.Location) AppointmentView {
	return AppointmentView{
		Appointment: a,
		Time:        a.Datetime.In(loc).Format("15:04"),
		Online:      a.IsOnline(),
	}
}

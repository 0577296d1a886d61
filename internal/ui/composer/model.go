package composer

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailcal/internal/compose"
	"github.com/nhle/mailcal/internal/keys"
	"github.com/nhle/mailcal/internal/model"
	"github.com/nhle/mailcal/internal/render"
	"github.com/nhle/mailcal/internal/theme"
)

// deliveryInputLayout is the format shown and prefilled in the form.
const deliveryInputLayout = "2006-01-02 15:04"

// defaultLead is how far ahead of now the delivery time is prefilled.
const defaultLead = 5 * time.Minute

// SendMsg is dispatched when the form is submitted with a valid message.
type SendMsg struct {
	Outgoing model.Outgoing
}

// SaveDraftMsg is dispatched when the user saves the text as a draft.
type SaveDraftMsg struct {
	Text string

	// DraftID is the draft being edited, if any.
	DraftID int64
}

// CancelMsg is dispatched when the user leaves the form.
type CancelMsg struct{}

// Request describes what the form starts with.
type Request struct {
	Title      string
	Recipients []model.Recipient

	// RecipientID preselects a recipient, as for replies.
	RecipientID int64

	// Text is the editable plain text.
	Text string

	// Quoted is HTML appended after the typed text, as for forwards.
	Quoted string

	DraftID int64
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	recipient int64
	text      string
	delivery  string
}

// Model is the Bubble Tea model for composing a message.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	req    Request
	keys   *keys.KeyMap
	now    func() time.Time
	loc    *time.Location
	err    error
	width  int
	height int
}

// New creates a compose form model. Delivery times are read in loc.
func New(k *keys.KeyMap, now func() time.Time, loc *time.Location, width, height int) Model {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return Model{
		fb:     &formBindings{},
		keys:   k,
		now:    now,
		loc:    loc,
		width:  width,
		height: height,
	}
}

// Start initializes the form for req.
func (m *Model) Start(req Request) tea.Cmd {
	if req.Title == "" {
		req.Title = "New Message"
	}
	m.req = req
	m.err = nil
	m.fb.recipient = req.RecipientID
	if m.fb.recipient == 0 && len(req.Recipients) > 0 {
		m.fb.recipient = req.Recipients[0].ID
	}
	m.fb.text = req.Text
	m.fb.delivery = m.now().In(m.loc).Add(defaultLead).Format(deliveryInputLayout)
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the compose form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.SaveDraft):
			text := m.Text()
			if compose.IsBlank(text) {
				m.err = compose.ErrEmptyText
				return m, nil
			}
			draftID := m.req.DraftID
			return m, func() tea.Msg { return SaveDraftMsg{Text: text, DraftID: draftID} }
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return CancelMsg{} }
		}
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		out, err := m.Outgoing()
		if err != nil {
			// Keep what was typed and let the user fix it.
			m.err = err
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		return m, func() tea.Msg { return SendMsg{Outgoing: out} }
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// Text returns the message text as it would be sent: the typed text as
// paragraphs followed by any quoted HTML.
func (m Model) Text() string {
	return compose.WrapPlain(m.fb.text) + m.req.Quoted
}

// Outgoing builds and validates the message from the current form values.
func (m Model) Outgoing() (model.Outgoing, error) {
	at, err := compose.ParseDelivery(m.fb.delivery, m.loc)
	if err != nil {
		return model.Outgoing{}, err
	}
	out := model.Outgoing{
		Text:       m.Text(),
		DeliveryAt: at,
		DraftID:    m.req.DraftID,
	}
	if m.fb.recipient != 0 {
		out.RecipientIDs = []int64{m.fb.recipient}
	}
	if err := compose.Validate(out, m.now()); err != nil {
		return model.Outgoing{}, err
	}
	return out, nil
}

// SetError shows err above the form, for failures reported by the backend.
func (m *Model) SetError(err error) {
	m.err = err
}

// View renders the compose form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(m.req.Title) + "\n"
	if m.err != nil {
		content += theme.ErrorStyle.Render(m.err.Error()) + "\n\n"
	}
	content += m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth()).WithHeight(m.formHeight())
	}
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{m.recipientField()}

	if m.req.Quoted != "" {
		fields = append(fields, huh.NewNote().
			Title("Forwarded").
			Description(render.Preview(m.req.Quoted, 200)))
	}

	fields = append(fields,
		huh.NewText().
			Title("Text").
			Placeholder("Blank lines separate paragraphs").
			Value(&m.fb.text).
			Validate(validateText(m.req.Quoted != "")),
		huh.NewInput().
			Title("Delivery").
			Placeholder("YYYY-MM-DD HH:MM").
			Value(&m.fb.delivery).
			Validate(validateDelivery(m.now, m.loc)),
	)

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) recipientField() huh.Field {
	if len(m.req.Recipients) == 0 {
		return huh.NewNote().
			Title("Recipient").
			Description("No recipients available; refresh once the backend is reachable.")
	}

	opts := make([]huh.Option[int64], len(m.req.Recipients))
	for i, r := range m.req.Recipients {
		opts[i] = huh.NewOption(r.Email, r.ID)
	}
	return huh.NewSelect[int64]().
		Title("Recipient").
		Options(opts...).
		Value(&m.fb.recipient)
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 6
	if h < 10 {
		h = 10
	}
	return h
}

func validateText(hasQuoted bool) func(string) error {
	return func(s string) error {
		if hasQuoted {
			return nil
		}
		if compose.IsBlank(s) {
			return compose.ErrEmptyText
		}
		return nil
	}
}

func validateDelivery(now func() time.Time, loc *time.Location) func(string) error {
	return func(s string) error {
		at, err := compose.ParseDelivery(s, loc)
		if err != nil {
			return fmt.Errorf("use YYYY-MM-DD HH:MM")
		}
		if at.Before(now().Truncate(time.Minute)) {
			return compose.ErrDeliveryInPast
		}
		return nil
	}
}

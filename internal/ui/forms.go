package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/moviex/internal/auth"
	"github.com/desertthunder/moviex/internal/locale"
)

// form field names match [auth.FieldError.Field].
const (
	fieldUserID   = "userid"
	fieldEmail    = "email"
	fieldName     = "name"
	fieldPassword = "password"
	fieldConfirm  = "confirm"
)

var fieldLabels = map[string]string{
	fieldUserID:   locale.KeyUserID,
	fieldEmail:    locale.KeyEmail,
	fieldName:     locale.KeyName,
	fieldPassword: locale.KeyPassword,
	fieldConfirm:  locale.KeyConfirm,
}

type formField struct {
	name  string
	input textinput.Model
}

// form is a vertical stack of text inputs with one focused at a time.
type form struct {
	fields   []formField
	focus    int
	errField string
	errMsg   string
	notice   string
	busy     bool
}

func newForm(l locale.Locale, names ...string) *form {
	f := &form{}
	for _, name := range names {
		in := textinput.New()
		in.CharLimit = 128
		if name == fieldPassword || name == fieldConfirm {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.fields = append(f.fields, formField{name: name, input: in})
	}
	f.relabel(l)
	f.fields[0].input.Focus()
	return f
}

func newLoginForm(l locale.Locale) *form {
	return newForm(l, fieldUserID, fieldPassword)
}

func newSignUpForm(l locale.Locale) *form {
	return newForm(l, fieldUserID, fieldEmail, fieldName, fieldPassword, fieldConfirm)
}

// relabel localizes the placeholders.
func (f *form) relabel(l locale.Locale) {
	for i := range f.fields {
		f.fields[i].input.Placeholder = locale.T(l, fieldLabels[f.fields[i].name])
	}
}

func (f *form) value(name string) string {
	for _, fld := range f.fields {
		if fld.name == name {
			return fld.input.Value()
		}
	}
	return ""
}

func (f *form) setValue(name, v string) {
	for i := range f.fields {
		if f.fields[i].name == name {
			f.fields[i].input.SetValue(v)
		}
	}
}

func (f *form) focusIndex(i int) tea.Cmd {
	n := len(f.fields)
	f.focus = ((i % n) + n) % n
	var cmd tea.Cmd
	for j := range f.fields {
		if j == f.focus {
			cmd = f.fields[j].input.Focus()
			continue
		}
		f.fields[j].input.Blur()
	}
	return cmd
}

func (f *form) focusField(name string) tea.Cmd {
	for i, fld := range f.fields {
		if fld.name == name {
			return f.focusIndex(i)
		}
	}
	return nil
}

func (f *form) next() tea.Cmd { return f.focusIndex(f.focus + 1) }
func (f *form) prev() tea.Cmd { return f.focusIndex(f.focus - 1) }
func (f *form) last() bool    { return f.focus == len(f.fields)-1 }

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

// fail records err for display. Field errors move focus to the offending input; the values are kept.
func (f *form) fail(err error, l locale.Locale, fallback string) tea.Cmd {
	f.busy = false
	f.notice = ""
	var fe *auth.FieldError
	if errors.As(err, &fe) {
		f.errField = fe.Field
		f.errMsg = fe.Message(l)
		if fe.Field != "" {
			return f.focusField(fe.Field)
		}
		return nil
	}
	f.errField = ""
	if fallback == locale.KeySignUpFailed {
		f.errMsg = locale.T(l, fallback, err.Error())
	} else {
		f.errMsg = locale.T(l, fallback)
	}
	return nil
}

func (f *form) clearError() {
	f.errField = ""
	f.errMsg = ""
}

func (f *form) signUpForm() auth.SignUpForm {
	return auth.SignUpForm{
		UserID:   f.value(fieldUserID),
		Email:    f.value(fieldEmail),
		Name:     f.value(fieldName),
		Password: f.value(fieldPassword),
		Confirm:  f.value(fieldConfirm),
	}
}

func (f *form) view(title string, l locale.Locale) string {
	var b strings.Builder
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")
	for _, fld := range f.fields {
		label := locale.T(l, fieldLabels[fld.name])
		if fld.name == f.errField {
			label = styles.err.Render(label)
		}
		b.WriteString(label + "\n" + fld.input.View() + "\n\n")
	}
	if f.errMsg != "" {
		b.WriteString(styles.err.Render(f.errMsg) + "\n")
	}
	if f.notice != "" {
		b.WriteString(styles.ok.Render(f.notice) + "\n")
	}
	if f.busy {
		b.WriteString(styles.help.Render(locale.T(l, locale.KeyLoading)) + "\n")
	}
	return b.String()
}

// Package play is the terminal game screen. It drives a game.Session from
// key presses and renders the round, the answer buttons and the score.
package play

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/eartrainer/internal/cues"
	"github.com/zjrosen/eartrainer/internal/game"
	"github.com/zjrosen/eartrainer/internal/log"
	"github.com/zjrosen/eartrainer/internal/theory"
)

const (
	startHint = "Press enter to start."
	nextHint  = "Press enter for the next note."
)

// Results of the session calls run as commands.
type (
	playedMsg struct {
		action string
		err    error
	}
	advancedMsg struct {
		advanced bool
		err      error
	}
	scaleMsg struct {
		started bool
		err     error
	}
	answeredMsg struct {
		feedback game.Feedback
		accepted bool
	}
	settingsMsg struct {
		err error
	}
)

// Model holds the game screen state. The session owns the game state.
type Model struct {
	ctx  context.Context
	sess *game.Session
	cues cues.Player
	keys KeyMap

	width    int
	height   int
	feedback *game.Feedback
	status   string
	showHelp bool
	quitting bool
}

// New creates the game screen. ctx bounds every playback the screen starts.
func New(ctx context.Context, sess *game.Session, cuePlayer cues.Player) Model {
	if cuePlayer == nil {
		cuePlayer = cues.NoopPlayer{}
	}
	return Model{
		ctx:    ctx,
		sess:   sess,
		cues:   cuePlayer,
		keys:   Keys,
		status: startHint,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case roundMsg:
		m.feedback = nil
		m.status = ""
		return m, ackAfterFrame(msg.ack)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case answeredMsg:
		if !msg.accepted {
			m.status = m.phaseHint()
			break
		}
		fb := msg.feedback
		m.feedback = &fb
		m.status = nextHint

	case playedMsg:
		m.status = m.errorStatus(msg.action, msg.err)

	case advancedMsg:
		if msg.err == nil && !msg.advanced {
			m.status = "Answer the current note first."
			break
		}
		m.status = m.errorStatus("next", msg.err)

	case scaleMsg:
		if msg.err == nil && !msg.started {
			m.status = "Reference scale stopped."
			break
		}
		m.status = m.errorStatus("scale", msg.err)

	case settingsMsg:
		if msg.err != nil {
			m.status = m.errorStatus("settings", msg.err)
			break
		}
		m.feedback = nil
		m.status = startHint
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cues.Play(m.ctx, cues.Back)
		m.sess.StopAll(game.StopFade)
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keys.Next):
		if m.sess.Phase() == game.PhaseNotStarted {
			m.cues.Play(m.ctx, cues.Select)
			m.status = ""
			return m, m.startCmd()
		}
		if m.sess.Phase() == game.PhaseAwaitingNext {
			m.feedback = nil
			m.status = ""
		}
		return m, m.advanceCmd()

	case key.Matches(msg, m.keys.Degree):
		n := int(msg.String()[0] - '0')
		return m, m.answerCmd(m.sess.Scale().Degrees[n-1].PitchClass)

	case key.Matches(msg, m.keys.Letter):
		if pc, ok := pitchClassForLetter(m.sess.Scale(), msg.String()); ok {
			return m, m.answerCmd(pc)
		}

	case key.Matches(msg, m.keys.Replay):
		return m, m.playCmd("replay", m.sess.ReplayTarget)

	case key.Matches(msg, m.keys.Scale):
		return m, m.scaleCmd()

	case key.Matches(msg, m.keys.Tonic):
		return m, m.playCmd("tonic", m.sess.PlayReferenceTonic)

	case key.Matches(msg, m.keys.PrevKey):
		return m, m.settingsCmd(shiftKey(m.sess.Key(), -1), m.sess.RangeMode())

	case key.Matches(msg, m.keys.NextKey):
		return m, m.settingsCmd(shiftKey(m.sess.Key(), 1), m.sess.RangeMode())

	case key.Matches(msg, m.keys.Range):
		mode := game.RangeMulti
		if m.sess.RangeMode() == game.RangeMulti {
			mode = game.RangeOne
		}
		return m, m.settingsCmd(m.sess.Key(), mode)

	case key.Matches(msg, m.keys.Restart):
		m.cues.Play(m.ctx, cues.Back)
		m.sess.Restart()
		m.feedback = nil
		m.status = "Score reset. " + startHint
	}
	return m, nil
}

func (m Model) startCmd() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		return playedMsg{action: "start", err: sess.StartGame(ctx, sess.Key())}
	}
}

func (m Model) advanceCmd() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		ok, err := sess.Advance(ctx)
		return advancedMsg{advanced: ok, err: err}
	}
}

func (m Model) answerCmd(pc int) tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		fb, ok := sess.SubmitAnswer(ctx, pc)
		return answeredMsg{feedback: fb, accepted: ok}
	}
}

func (m Model) playCmd(action string, play func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return playedMsg{action: action, err: play(ctx)}
	}
}

func (m Model) scaleCmd() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		started, err := sess.PlayReferenceScale(ctx)
		return scaleMsg{started: started, err: err}
	}
}

func (m Model) settingsCmd(keyName string, mode game.RangeMode) tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		return settingsMsg{err: sess.ChangeSettings(ctx, keyName, mode)}
	}
}

// errorStatus turns a failed action into the status line.
func (m Model) errorStatus(action string, err error) string {
	switch {
	case err == nil:
		return m.status
	case errors.Is(err, game.ErrNotStarted):
		return startHint
	case errors.Is(err, context.Canceled):
		return ""
	}
	log.Warn(log.CatUI, "Action failed", "action", action, "error", err)
	return fmt.Sprintf("error: %v", err)
}

func (m Model) phaseHint() string {
	if m.sess.Phase() == game.PhaseNotStarted {
		return startHint
	}
	return nextHint
}

// pitchClassForLetter finds the degree spelled with letter. Every letter
// names exactly one degree of a spelled major scale.
func pitchClassForLetter(scale *theory.Scale, letter string) (int, bool) {
	letter = strings.ToUpper(letter)
	for _, d := range scale.Degrees {
		if strings.HasPrefix(d.Name, letter) {
			return d.PitchClass, true
		}
	}
	return 0, false
}

// shiftKey moves current by delta steps around the chromatic key list.
func shiftKey(current string, delta int) string {
	opts := theory.KeyOptions()
	pc, err := theory.NoteNameToPitchClass(current)
	if err != nil {
		return opts[0].Key
	}
	return opts[theory.Mod12(pc+delta)].Key
}

// View renders the game screen.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	sections := []string{
		titleStyle.Render("Ear Trainer"),
		metaStyle.Render(m.sess.ScoreMeta()),
		promptStyle.Render(m.renderPrompt()),
		m.renderButtons(),
		m.renderScore(),
		keyboardStyle.Render(m.renderKeyboard()),
	}
	if m.status != "" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	sections = append(sections, "", m.renderHelp())

	containerStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center)

	return containerStyle.Render(lipgloss.JoinVertical(lipgloss.Center, sections...))
}

func (m Model) renderPrompt() string {
	switch m.sess.Phase() {
	case game.PhaseAwaitingAnswer:
		return "Which note is this?"
	case game.PhaseAwaitingNext:
		if m.feedback == nil {
			return "Answered."
		}
		if m.feedback.Correct {
			return correctTextStyle.Render(m.feedback.Message())
		}
		return incorrectTextStyle.Render(m.feedback.Message())
	}
	return "Ready when you are."
}

// renderButtons draws one button per degree, marking the target and a
// wrong choice once the round is answered.
func (m Model) renderButtons() string {
	scale := m.sess.Scale()
	buttons := make([]string, 0, len(scale.Degrees))
	for _, d := range scale.Degrees {
		style := buttonStyle
		if fb := m.feedback; fb != nil {
			switch {
			case d.PitchClass == fb.Target.PitchClass:
				style = targetButtonStyle
			case d.PitchClass == fb.Chosen:
				style = wrongButtonStyle
			}
		}
		buttons = append(buttons, style.Render(fmt.Sprintf("%s\n%d", d.Name, d.Number)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, buttons...)
}

func (m Model) renderScore() string {
	s := m.sess.Score()
	return lipgloss.JoinHorizontal(lipgloss.Top,
		correctPillStyle.Render(fmt.Sprintf("Correct %d", s.Correct)),
		incorrectPillStyle.Render(fmt.Sprintf("Incorrect %d", s.Incorrect)),
		accuracyPillStyle.Render("Accuracy "+s.AccuracyString()),
	)
}

// renderKeyboard lists the scale over the two-octave keyboard display.
func (m Model) renderKeyboard() string {
	scale := m.sess.Scale()
	names := make([]string, 0, 8)
	for _, p := range m.sess.KeyboardHighlights() {
		names = append(names, fmt.Sprintf("%s%d", scale.NameFor(p.PitchClass()), p.Octave()))
	}
	return strings.Join(names, " ")
}

func (m Model) renderHelp() string {
	bindings := m.keys.ShortHelp()
	sep := " • "
	if m.showHelp {
		bindings = m.keys.FullHelp()
		sep = "\n"
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, helpKeyStyle.Render(h.Key)+" "+helpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, sep)
}

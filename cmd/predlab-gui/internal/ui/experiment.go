package ui

import (
	"errors"
	"strings"

	"gioui.org/io/key"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"predlab/cmd/predlab-gui/internal/theme"
	"predlab/internal/engine"
)

// ExperimentScreen renders reveal frames and feeds participant input back
// to the engine.
//
// Commit acknowledgment: a frame showing the prediction input must be laid
// out twice before its sequence is acknowledged. The first layout submits
// the new content and requests another frame; the second runs after that
// submission, so by the time RenderCommitted fires the text is at worst
// one compositor flip from the glass. The engine's settle delay covers
// that remainder.
type ExperimentScreen struct {
	theme          *theme.Theme
	completionText string

	eng *engine.Engine

	editor  widget.Editor
	confirm widget.Clickable

	// seenSeq is the last frame prepared for display, paintCount its
	// layout passes so far, ackedSeq the last acknowledged frame.
	seenSeq    uint64
	paintCount int
	ackedSeq   uint64

	// editorFocused is last frame's focus state, for edge detection.
	editorFocused bool

	notice string
}

// NewExperimentScreen builds the reveal screen.
func NewExperimentScreen(t *theme.Theme, completionText string) *ExperimentScreen {
	s := &ExperimentScreen{
		theme:          t,
		completionText: completionText,
	}
	s.editor.SingleLine = true
	s.editor.Submit = true
	return s
}

// Bind attaches the engine for the current run and resets per-run state.
func (s *ExperimentScreen) Bind(eng *engine.Engine) {
	s.eng = eng
	s.seenSeq = 0
	s.paintCount = 0
	s.ackedSeq = 0
	s.editorFocused = false
	s.notice = ""
	s.editor.SetText("")
}

// focusEdge reports a rising edge of input focus. The editor widget
// registers its own focus filter during Update and the event router
// delivers each focus event to one subscriber only, so the screen reads
// the focus state per frame instead of competing for the event.
func (s *ExperimentScreen) focusEdge(focused bool) bool {
	rising := focused && !s.editorFocused
	s.editorFocused = focused
	return rising
}

func (s *ExperimentScreen) submit() {
	err := s.eng.Confirm(s.editor.Text())
	switch {
	case err == nil:
		s.notice = ""
	case errors.Is(err, engine.ErrEmptyPrediction):
		s.notice = "예측 어절을 입력한 후 확인을 누르세요."
	case errors.Is(err, engine.ErrNotAwaiting):
		// Confirm raced a step transition; the next frame supersedes it.
	default:
		s.notice = err.Error()
	}
}

// Layout renders one reveal frame and processes input events.
func (s *ExperimentScreen) Layout(gtx layout.Context, f engine.Frame) layout.Dimensions {
	// Editor events. Every content change counts as typing activity; the
	// timing capture keeps only the first signal per opportunity.
	for {
		ev, ok := s.editor.Update(gtx)
		if !ok {
			break
		}
		switch ev.(type) {
		case widget.ChangeEvent:
			s.eng.Keystroke()
		case widget.SubmitEvent:
			s.submit()
		}
	}

	// Focus arriving on the input is the earliest input-start signal.
	if s.focusEdge(gtx.Source.Focused(&s.editor)) {
		s.eng.FocusGained()
	}

	if s.confirm.Clicked(gtx) {
		s.submit()
	}

	// New frame: reset the input and the paint-pass counter.
	if f.Seq != s.seenSeq {
		s.seenSeq = f.Seq
		s.paintCount = 0
		s.notice = ""
		if f.InputVisible {
			s.editor.SetText("")
			gtx.Execute(key.FocusCmd{Tag: &s.editor})
		}
	}

	if f.InputVisible && f.Seq != s.ackedSeq {
		s.paintCount++
		if s.paintCount >= 2 {
			s.ackedSeq = f.Seq
			s.eng.RenderCommitted(f.Seq)
		} else {
			gtx.Execute(op.InvalidateCmd{})
		}
	}

	return s.layoutFrame(gtx, f)
}

func (s *ExperimentScreen) layoutFrame(gtx layout.Context, f engine.Frame) layout.Dimensions {
	t := s.theme

	return layout.UniformInset(t.Config.Padding).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			// Progress caption pinned to the top edge.
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.E.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					c := material.Caption(t.Theme, progressLabel(f))
					c.Color = t.Palette.TextMuted
					return c.Layout(gtx)
				})
			}),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					return s.layoutCenter(gtx, f)
				})
			}),
		)
	})
}

func (s *ExperimentScreen) layoutCenter(gtx layout.Context, f engine.Frame) layout.Dimensions {
	t := s.theme
	gtx.Constraints.Max.X = gtx.Dp(720)
	gtx.Constraints.Min.X = gtx.Constraints.Max.X

	children := []layout.FlexChild{
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			l := material.Label(t.Theme, t.Config.FontStimulus, f.Prefix)
			l.Color = t.Palette.Text
			l.Alignment = text.Middle
			return l.Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: t.Config.Spacing}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			b := material.Label(t.Theme, t.Config.FontBody, f.Prompt)
			b.Color = t.Palette.TextMuted
			b.Alignment = text.Middle
			return b.Layout(gtx)
		}),
	}

	if f.InputVisible {
		children = append(children,
			layout.Rigid(layout.Spacer{Height: t.Config.Spacing}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				border := widget.Border{
					Color:        t.Palette.Border,
					CornerRadius: t.Config.CornerRadius,
					Width:        unit.Dp(1),
				}
				return border.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					return layout.UniformInset(unit.Dp(12)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
						ed := material.Editor(t.Theme, &s.editor, "")
						ed.TextSize = t.Config.FontBody
						return ed.Layout(gtx)
					})
				})
			}),
			layout.Rigid(layout.Spacer{Height: t.Config.Spacing}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				if strings.TrimSpace(s.editor.Text()) == "" {
					gtx = gtx.Disabled()
				}
				btn := material.Button(t.Theme, &s.confirm, "확인")
				btn.Background = t.Palette.Primary
				return btn.Layout(gtx)
			}),
		)
	}

	if s.notice != "" {
		children = append(children,
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				n := material.Body2(t.Theme, s.notice)
				n.Color = t.Palette.Error
				return n.Layout(gtx)
			}),
		)
	}

	return layout.Flex{Axis: layout.Vertical, Alignment: layout.Middle}.Layout(gtx, children...)
}

// LayoutDone renders the completion screen with the export outcome.
func (s *ExperimentScreen) LayoutDone(gtx layout.Context, f engine.Frame, resultPath string, exportErr error) layout.Dimensions {
	t := s.theme

	return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		children := []layout.FlexChild{
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				l := material.Label(t.Theme, t.Config.FontStimulus, s.completionText)
				l.Color = t.Palette.Text
				l.Alignment = text.Middle
				return l.Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Height: t.Config.Spacing}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				c := material.Caption(t.Theme, progressLabel(f))
				c.Color = t.Palette.TextMuted
				return c.Layout(gtx)
			}),
		}

		switch {
		case exportErr != nil:
			children = append(children, layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				e := material.Body2(t.Theme, "결과 저장 실패: "+exportErr.Error())
				e.Color = t.Palette.Error
				return e.Layout(gtx)
			}))
		case resultPath != "":
			children = append(children, layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				b := material.Caption(t.Theme, resultPath)
				b.Color = t.Palette.TextMuted
				return b.Layout(gtx)
			}))
		}

		return layout.Flex{Axis: layout.Vertical, Alignment: layout.Middle}.Layout(gtx, children...)
	})
}

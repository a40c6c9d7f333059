package ui

import (
	"fmt"
	"strconv"
	"strings"

	"gioui.org/layout"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"predlab/cmd/predlab-gui/internal/theme"
	"predlab/internal/session"
	"predlab/internal/stimulus"
)

// IntakeScreen collects participant demographics before the run.
type IntakeScreen struct {
	theme       *theme.Theme
	instruction string
	onStart     func(session.Demographics) error

	label      widget.Editor
	age        widget.Editor
	sex        widget.Editor
	handedness widget.Editor
	nativeLang widget.Editor
	start      widget.Clickable

	errMsg string
}

// NewIntakeScreen builds the intake form. onStart receives the parsed
// demographics; an error it returns is shown on the form.
func NewIntakeScreen(t *theme.Theme, instruction string, onStart func(session.Demographics) error) *IntakeScreen {
	s := &IntakeScreen{
		theme:       t,
		instruction: instruction,
		onStart:     onStart,
	}
	for _, ed := range []*widget.Editor{&s.label, &s.age, &s.sex, &s.handedness, &s.nativeLang} {
		ed.SingleLine = true
	}
	return s
}

func (s *IntakeScreen) submit() {
	demo := session.Demographics{
		Label:          strings.TrimSpace(s.label.Text()),
		Sex:            strings.TrimSpace(s.sex.Text()),
		Handedness:     strings.TrimSpace(s.handedness.Text()),
		NativeLanguage: strings.TrimSpace(s.nativeLang.Text()),
	}

	ageText := strings.TrimSpace(s.age.Text())
	if ageText != "" {
		age, err := strconv.Atoi(ageText)
		if err != nil {
			s.errMsg = "나이는 숫자로 입력하세요."
			return
		}
		demo.Age = age
	}

	if err := s.onStart(demo); err != nil {
		s.errMsg = err.Error()
		return
	}
	s.errMsg = ""
}

// Layout renders the form with a stimulus summary so the operator can
// confirm the right list is loaded before handing over the keyboard.
func (s *IntakeScreen) Layout(gtx layout.Context, list *stimulus.List) layout.Dimensions {
	if s.start.Clicked(gtx) {
		s.submit()
	}

	t := s.theme
	return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		gtx.Constraints.Max.X = gtx.Dp(460)
		gtx.Constraints.Min.X = gtx.Constraints.Max.X

		children := []layout.FlexChild{
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				h := material.H5(t.Theme, "참가자 정보")
				h.Color = t.Palette.Text
				return h.Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Height: t.Config.Spacing}.Layout),
		}

		if s.instruction != "" {
			children = append(children,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					b := material.Body2(t.Theme, s.instruction)
					b.Color = t.Palette.TextMuted
					return b.Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Height: t.Config.Spacing}.Layout),
			)
		}

		children = append(children,
			s.field("참가자 번호", &s.label),
			s.field("나이", &s.age),
			s.field("성별", &s.sex),
			s.field("주 사용 손", &s.handedness),
			s.field("모국어", &s.nativeLang),
			layout.Rigid(layout.Spacer{Height: t.Config.Spacing}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				summary := fmt.Sprintf("문장 %d개, 예측 시행 %d회 (%s)",
					len(list.Sentences), list.Opportunities(), list.Source)
				c := material.Caption(t.Theme, summary)
				c.Color = t.Palette.TextMuted
				return c.Layout(gtx)
			}),
		)

		if s.errMsg != "" {
			children = append(children,
				layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					e := material.Body2(t.Theme, s.errMsg)
					e.Color = t.Palette.Error
					return e.Layout(gtx)
				}),
			)
		}

		children = append(children,
			layout.Rigid(layout.Spacer{Height: t.Config.Spacing}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				btn := material.Button(t.Theme, &s.start, "실험 시작")
				btn.Background = t.Palette.Primary
				return btn.Layout(gtx)
			}),
		)

		return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
	})
}

func (s *IntakeScreen) field(label string, ed *widget.Editor) layout.FlexChild {
	t := s.theme
	return layout.Rigid(func(gtx layout.Context) layout.Dimensions {
		return layout.Inset{Bottom: unit.Dp(10)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					c := material.Caption(t.Theme, label)
					c.Color = t.Palette.TextMuted
					return c.Layout(gtx)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					border := widget.Border{
						Color:        t.Palette.Border,
						CornerRadius: t.Config.CornerRadius,
						Width:        unit.Dp(1),
					}
					return border.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
						return layout.UniformInset(unit.Dp(8)).Layout(gtx,
							material.Editor(t.Theme, ed, "").Layout)
					})
				}),
			)
		})
	})
}

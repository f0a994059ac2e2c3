package main

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"gioui.org/app"
	"gioui.org/font"
	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"taskfeed/internal/client"
	"taskfeed/internal/logging"
	"taskfeed/pkg/task"
)

var (
	apiBase = "http://localhost:8080"
	theme   *material.Theme
	muted   = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
)

// Pages
const (
	pageFeed = iota
	pageActivity
	pageAccount
)

// taskRow holds the widgets of one feed entry, keyed by task id so state
// survives reordering.
type taskRow struct {
	like    widget.Clickable
	remove  widget.Clickable
	send    widget.Clickable
	comment widget.Editor
}

type UI struct {
	feed        *feed
	currentPage int

	// Nav buttons
	navFeed     widget.Clickable
	navActivity widget.Clickable
	navAccount  widget.Clickable
	refreshBtn  widget.Clickable

	// Feed
	taskList      widget.List
	newTaskEditor widget.Editor
	createTaskBtn widget.Clickable
	rows          map[string]*taskRow

	// Activity
	eventList widget.List

	// Account
	nameEditor  widget.Editor
	emailEditor widget.Editor
	signInBtn   widget.Clickable
}

func main() {
	if base := os.Getenv("API_BASE"); base != "" {
		apiBase = base
	}
	log := logging.New("taskfeed-ui", os.Getenv("LOG_LEVEL"))

	theme = material.NewTheme()
	theme.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	theme.Palette.Bg = color.NRGBA{R: 0x12, G: 0x12, B: 0x12, A: 0xFF}
	theme.Palette.Fg = color.NRGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	theme.Palette.ContrastBg = color.NRGBA{R: 0x30, G: 0x60, B: 0xA0, A: 0xFF}
	theme.Palette.ContrastFg = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	c := client.New(apiBase)
	if token := os.Getenv("TASKFEED_TOKEN"); token != "" {
		c = c.WithToken(token)
	}

	ui := &UI{feed: newFeed(c, log), rows: map[string]*taskRow{}}
	ui.taskList.Axis = layout.Vertical
	ui.eventList.Axis = layout.Vertical
	ui.newTaskEditor.SingleLine = true
	ui.nameEditor.SingleLine = true
	ui.emailEditor.SingleLine = true

	go func() {
		w := new(app.Window)
		w.Option(app.Title("taskfeed"))
		w.Option(app.Size(unit.Dp(900), unit.Dp(800)))
		ui.feed.changed = w.Invalidate
		go ui.pollData()
		if err := ui.run(w); err != nil {
			log.WithError(err).Fatal("window")
		}
		os.Exit(0)
	}()
	app.Main()
}

func (ui *UI) run(w *app.Window) error {
	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			view := ui.feed.snapshot()
			ui.handleClicks(gtx, view)
			ui.layout(gtx, view)
			e.Frame(gtx.Ops)
		}
	}
}

func (ui *UI) row(id string) *taskRow {
	r, ok := ui.rows[id]
	if !ok {
		r = &taskRow{}
		r.comment.SingleLine = true
		ui.rows[id] = r
	}
	return r
}

func (ui *UI) handleClicks(gtx layout.Context, view feedView) {
	ctx := context.Background()
	if ui.navFeed.Clicked(gtx) {
		ui.currentPage = pageFeed
	}
	if ui.navActivity.Clicked(gtx) {
		ui.currentPage = pageActivity
	}
	if ui.navAccount.Clicked(gtx) {
		ui.currentPage = pageAccount
	}
	if ui.refreshBtn.Clicked(gtx) {
		go ui.feed.refresh(ctx)
	}
	if ui.createTaskBtn.Clicked(gtx) {
		if text := strings.TrimSpace(ui.newTaskEditor.Text()); text != "" {
			go ui.feed.post(ctx, text)
			ui.newTaskEditor.SetText("")
		}
	}
	if ui.signInBtn.Clicked(gtx) {
		name, email := ui.nameEditor.Text(), ui.emailEditor.Text()
		go ui.feed.signIn(ctx, name, email)
	}
	for _, t := range view.Tasks {
		r := ui.row(t.ID)
		if r.like.Clicked(gtx) {
			go ui.feed.toggleLike(ctx, t)
		}
		if r.remove.Clicked(gtx) {
			go ui.feed.remove(ctx, t.ID)
		}
		if r.send.Clicked(gtx) {
			if text := strings.TrimSpace(r.comment.Text()); text != "" {
				go ui.feed.comment(ctx, t.ID, text)
				r.comment.SetText("")
			}
		}
	}
}

func (ui *UI) layout(gtx layout.Context, view feedView) layout.Dimensions {
	return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return ui.layoutNav(gtx, view)
		}),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.UniformInset(unit.Dp(16)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						if view.Notice == "" {
							return layout.Dimensions{}
						}
						label := material.Caption(theme, view.Notice)
						label.Color = color.NRGBA{R: 0xFF, G: 0xA0, B: 0x00, A: 0xFF}
						return layout.Inset{Bottom: unit.Dp(8)}.Layout(gtx, label.Layout)
					}),
					layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
						switch ui.currentPage {
						case pageActivity:
							return ui.layoutActivity(gtx, view)
						case pageAccount:
							return ui.layoutAccount(gtx, view)
						default:
							return ui.layoutFeed(gtx, view)
						}
					}),
				)
			})
		}),
	)
}

func (ui *UI) layoutNav(gtx layout.Context, view feedView) layout.Dimensions {
	gtx.Constraints.Min.X = gtx.Dp(unit.Dp(160))
	gtx.Constraints.Max.X = gtx.Dp(unit.Dp(160))
	who := "not signed in"
	if view.UserName != "" {
		who = view.UserName
	}
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{Top: unit.Dp(16), Bottom: unit.Dp(4), Left: unit.Dp(12)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				label := material.H6(theme, "taskfeed")
				label.Color = theme.Palette.ContrastFg
				return label.Layout(gtx)
			})
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{Bottom: unit.Dp(12), Left: unit.Dp(12)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				label := material.Caption(theme, who)
				label.Color = muted
				return label.Layout(gtx)
			})
		}),
		layout.Rigid(navBtn(theme, &ui.navFeed, "Feed", ui.currentPage == pageFeed)),
		layout.Rigid(navBtn(theme, &ui.navActivity, "Activity", ui.currentPage == pageActivity)),
		layout.Rigid(navBtn(theme, &ui.navAccount, "Account", ui.currentPage == pageAccount)),
		layout.Rigid(navBtn(theme, &ui.refreshBtn, "Refresh", false)),
	)
}

func navBtn(th *material.Theme, btn *widget.Clickable, label string, active bool) layout.Widget {
	return func(gtx layout.Context) layout.Dimensions {
		return layout.Inset{Top: unit.Dp(2), Bottom: unit.Dp(2), Left: unit.Dp(8), Right: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			b := material.Button(th, btn, label)
			if active {
				b.Background = th.Palette.ContrastBg
			} else {
				b.Background = color.NRGBA{A: 0}
			}
			b.Color = th.Palette.Fg
			return b.Layout(gtx)
		})
	}
}

func (ui *UI) layoutFeed(gtx layout.Context, view feedView) layout.Dimensions {
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.H5(theme, "Feed").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{}.Layout(gtx,
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					return material.Editor(theme, &ui.newTaskEditor, "What are you working on?").Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return material.Button(theme, &ui.createTaskBtn, "Post").Layout(gtx)
				}),
			)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return material.List(theme, &ui.taskList).Layout(gtx, len(view.Tasks), func(gtx layout.Context, i int) layout.Dimensions {
				return ui.layoutTask(gtx, view, view.Tasks[i])
			})
		}),
	)
}

func (ui *UI) layoutTask(gtx layout.Context, view feedView, t task.Task) layout.Dimensions {
	r := ui.row(t.ID)
	likeLabel := "Like"
	if t.Likes.Has(view.UserID) {
		likeLabel = "Unlike"
	}
	author := t.Name
	if author == "" {
		author = t.User
	}
	return layout.Inset{Bottom: unit.Dp(12)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				label := material.Body1(theme, t.Text)
				label.Font.Weight = font.Bold
				return label.Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				label := material.Caption(theme, fmt.Sprintf("%s · %s · %d likes · %d comments",
					author, t.Date.Local().Format("Jan 2 15:04"), t.Likes.Len(), len(t.Comments)))
				label.Color = muted
				return label.Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				if view.UserID == "" {
					return layout.Dimensions{}
				}
				return layout.Inset{Top: unit.Dp(4)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
						layout.Rigid(material.Button(theme, &r.like, likeLabel).Layout),
						layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
						layout.Flexed(1, material.Editor(theme, &r.comment, "Add a comment...").Layout),
						layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
						layout.Rigid(material.Button(theme, &r.send, "Comment").Layout),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							if t.User != view.UserID {
								return layout.Dimensions{}
							}
							return layout.Inset{Left: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
								btn := material.Button(theme, &r.remove, "Delete")
								btn.Background = color.NRGBA{R: 0xC0, G: 0x30, B: 0x30, A: 0xFF}
								return btn.Layout(gtx)
							})
						}),
					)
				})
			}),
		)
	})
}

func (ui *UI) layoutActivity(gtx layout.Context, view feedView) layout.Dimensions {
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.H5(theme, "Activity").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return material.List(theme, &ui.eventList).Layout(gtx, len(view.Events), func(gtx layout.Context, i int) layout.Dimensions {
				e := view.Events[i]
				return layout.Inset{Bottom: unit.Dp(4)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							label := material.Body2(theme, fmt.Sprintf("[%s] %s by %s", e.Timestamp.Local().Format("15:04:05"), e.Type, e.Actor))
							label.Font.Weight = font.Bold
							return label.Layout(gtx)
						}),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							label := material.Caption(theme, "task "+e.TaskID+" · "+e.Hash[:12])
							label.Color = muted
							return label.Layout(gtx)
						}),
					)
				})
			})
		}),
	)
}

func (ui *UI) layoutAccount(gtx layout.Context, view feedView) layout.Dimensions {
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.H5(theme, "Account").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Rigid(material.Editor(theme, &ui.nameEditor, "Name").Layout),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Rigid(material.Editor(theme, &ui.emailEditor, "Email").Layout),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Rigid(material.Button(theme, &ui.signInBtn, "Sign in").Layout),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if view.UserID == "" {
				return layout.Dimensions{}
			}
			label := material.Caption(theme, "user id "+view.UserID)
			label.Color = muted
			return label.Layout(gtx)
		}),
	)
}

// Data fetching

func (ui *UI) pollData() {
	ui.feed.refresh(context.Background())
	ticker := time.NewTicker(5 * time.Second)
	for range ticker.C {
		ui.feed.refresh(context.Background())
	}
}

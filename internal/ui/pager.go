package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Pager is the navigation bar for paginated content. It owns the page
// cursor, bounded to [1, total], and reports every move through onPage.
type Pager struct {
	page, total int
	onPage      func(page int)

	label *widget.Label
	prev  *widget.Button
	next  *widget.Button
	box   fyne.CanvasObject
}

func NewPager(total int, onPage func(page int)) *Pager {
	p := &Pager{page: 1, total: total, onPage: onPage}
	p.prev = widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() { p.Go(p.page - 1) })
	p.next = widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() { p.Go(p.page + 1) })
	p.label = widget.NewLabel("")
	p.box = container.NewHBox(layout.NewSpacer(), p.prev, p.label, p.next, layout.NewSpacer())
	p.update()
	return p
}

// Go moves the cursor to page if it is in range and not already current.
func (p *Pager) Go(page int) {
	if page < 1 || page > p.total || page == p.page {
		return
	}
	p.page = page
	p.update()
	p.onPage(page)
}

// Page returns the current cursor position.
func (p *Pager) Page() int { return p.page }

func (p *Pager) Object() fyne.CanvasObject { return p.box }

func (p *Pager) update() {
	p.label.SetText(fmt.Sprintf("Page %d / %d", p.page, p.total))
	if p.page <= 1 {
		p.prev.Disable()
	} else {
		p.prev.Enable()
	}
	if p.page >= p.total {
		p.next.Disable()
	} else {
		p.next.Enable()
	}
}

package views

import (
	"fmt"
	"strings"

	"tiersort/internal/tui/common"
	"tiersort/internal/tui/styles"
)

// RenderMainView draws the current item, the tier bar and the status line.
func RenderMainView(m common.ModelReader) string {
	var sb strings.Builder

	sb.WriteString(renderHeader(m))
	sb.WriteString("\n")

	switch m.Phase() {
	case common.Finished:
		sb.WriteString(renderSummary(m))
	default:
		if frame := m.Frame(); frame != "" {
			sb.WriteString(styles.Theme.Frame.Render(frame))
		} else {
			sb.WriteString(styles.Theme.Status.Render("(no picture)"))
		}
		sb.WriteString("\n")
		sb.WriteString(RenderTierBar(m.Tiers()))
	}

	if text, isErr := m.Status(); text != "" {
		style := styles.Theme.Status
		if isErr {
			style = styles.Theme.Error
		}
		sb.WriteString("\n" + style.Render(text))
	}

	if m.ShowHelp() {
		sb.WriteString("\n" + RenderHelp())
	}
	sb.WriteString("\n" + RenderKeyCommands())

	return styles.Theme.App.Render(sb.String())
}

func renderHeader(m common.ModelReader) string {
	title := styles.Theme.Title.Render("tiersort")
	item, ok := m.Item()
	if !ok {
		return title
	}
	st := m.Stats()
	return title + " " + item.Name + styles.Theme.Status.Render(
		fmt.Sprintf("  %d of %d, %d left", st.Decided()+1, st.Total, st.Remaining))
}

// RenderTierBar lists the tiers with their number keys.
func RenderTierBar(tiers []string) string {
	parts := make([]string, 0, len(tiers))
	for i, tier := range tiers {
		label := styles.Theme.Tier.Render(tier)
		if i < 9 {
			label = styles.Theme.Key.Render(fmt.Sprintf("[%d]", i+1)) + label
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " ")
}

func renderSummary(m common.ModelReader) string {
	st := m.Stats()
	if st.Total == 0 {
		return styles.Theme.Status.Render("No items found to sort.")
	}
	return styles.Theme.Success.Render(fmt.Sprintf(
		"Sorted %d items: %d moved, %d skipped, %d failed.",
		st.Total, st.Relocated, st.Skipped, st.Failed))
}

func RenderKeyCommands() string {
	return styles.Theme.Help.Render("[1-9] Tier  [?] Help  [q/Esc] Quit")
}

func RenderHelp() string {
	return styles.Theme.Help.Render(`
Press the number of a tier to move the item shown into that tier's folder.
The next item appears once the move is done. Quitting leaves the rest in place.
`)
}

package usecase

import (
	"fmt"
	"strings"

	"scenario-bot/internal/domain"
	"scenario-bot/internal/locale"
)

type section int

const (
	sectionNone section = iota
	sectionOpening
	sectionBody
	sectionClosing
)

// Structure parses a generated script into its opening, main points and
// closing. Regions start at any line containing the locale marker; the rest
// of a marker line is discarded. It fails with ErrMalformedResponse when a
// section ends up empty.
func Structure(text string, markers locale.Markers) (domain.StructuredScenario, error) {
	var (
		opening, closing []string
		points           []string
		pending          []string
		current          = sectionNone
	)

	flush := func() {
		if item := strings.TrimSpace(strings.Join(pending, " ")); item != "" {
			points = append(points, item)
		}
		pending = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if next, ok := markerSection(line, markers); ok {
			if current == sectionBody && next != sectionBody {
				flush()
			}
			current = next
			continue
		}

		switch current {
		case sectionOpening:
			opening = append(opening, line)
		case sectionClosing:
			closing = append(closing, line)
		case sectionBody:
			if rest, ok := trimBullet(line, markers.Bullets); ok {
				flush()
				pending = append(pending, strings.TrimSpace(rest))
				continue
			}
			pending = append(pending, line)
		}
	}
	flush()

	out := domain.StructuredScenario{
		Opening:    collapseSpaces(strings.Join(opening, " ")),
		MainPoints: points,
		Closing:    collapseSpaces(strings.Join(closing, " ")),
	}

	var missing []string
	if out.Opening == "" {
		missing = append(missing, "opening")
	}
	if len(out.MainPoints) == 0 {
		missing = append(missing, "main_points")
	}
	if out.Closing == "" {
		missing = append(missing, "closing")
	}
	if len(missing) > 0 {
		return domain.StructuredScenario{}, fmt.Errorf("%w: empty %s", ErrMalformedResponse, strings.Join(missing, ", "))
	}
	return out, nil
}

// markerSection reports the region a marker line switches to. Markers are
// matched by substring containment, checked in opening, body, closing order.
func markerSection(line string, m locale.Markers) (section, bool) {
	switch {
	case strings.Contains(line, m.Opening):
		return sectionOpening, true
	case strings.Contains(line, m.Body):
		return sectionBody, true
	case strings.Contains(line, m.Closing):
		return sectionClosing, true
	}
	return sectionNone, false
}

func trimBullet(line string, bullets []string) (string, bool) {
	for _, b := range bullets {
		if b != "" && strings.HasPrefix(line, b) {
			return line[len(b):], true
		}
	}
	return line, false
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FormatScenario writes a scenario back out in the sectioned script format
// that Structure reads.
func FormatScenario(s domain.StructuredScenario, markers locale.Markers) string {
	bullet := "-"
	if len(markers.Bullets) > 0 {
		bullet = markers.Bullets[0]
	}
	var b strings.Builder
	b.WriteString(markers.Headers.Opening + "\n")
	b.WriteString(s.Opening + "\n")
	b.WriteString(markers.Headers.Body + "\n")
	for _, p := range s.MainPoints {
		b.WriteString(bullet + " " + p + "\n")
	}
	b.WriteString(markers.Headers.Closing + "\n")
	b.WriteString(s.Closing + "\n")
	return b.String()
}

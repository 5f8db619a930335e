package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/mdrscore/client/internal/client/models"
)

func renderProfile(w io.Writer, p *models.Profile) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	row := func(label, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", label, value)
	}

	row("Name", p.FullName)
	row("Username", p.Username)
	row("Email", p.Email)
	row("Avatar", p.AvatarURL)
	row("Bio", p.Bio)
	row("Gender", p.Gender)
	row("Date of birth", p.DateOfBirth)
	row("Height (cm)", formatFloat(p.HeightCM))
	row("Weight (kg)", formatFloat(p.WeightKG))
	row("Sleep target (h)", formatFloat(p.TargetSleepHours))
	if p.TargetWaterML != nil {
		row("Water target (ml)", strconv.Itoa(*p.TargetWaterML))
	} else {
		row("Water target (ml)", "")
	}

	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		row(k, extraValue(p.Extra[k]))
	}

	return tw.Flush()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// extraValue unquotes JSON strings and prints anything else verbatim.
func extraValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}

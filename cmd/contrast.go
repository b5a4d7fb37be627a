package cmd

import (
	"fmt"

	"a11y_tracker/contrast"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func (a *app) contrastCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "contrast <foreground> <background>",
		Short: "Check the contrast ratio of two hex colours",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fg, bg := args[0], args[1]
			if !contrast.IsValidHex(fg) || !contrast.IsValidHex(bg) {
				return fmt.Errorf("colours must be hex like #1A2B3C or #abc, got %q and %q", fg, bg)
			}
			fg, bg = contrast.NormalizeHex(fg), contrast.NormalizeHex(bg)
			res := contrast.Check(fg, bg)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s on %s: %.2f:1 (%s, large text %s)\n",
				fg, bg, res.Ratio, contrast.Level(res.Ratio, false), contrast.Level(res.Ratio, true))
			for _, row := range []struct {
				label string
				pass  bool
			}{
				{"AA normal text (4.5:1)", res.PassesAA},
				{"AAA normal text (7:1)", res.PassesAAA},
				{"AA large text (3:1)", res.PassesAALarge},
				{"AAA large text (4.5:1)", res.PassesAAALarge},
			} {
				if row.pass {
					fmt.Fprintf(out, "  %s %s\n", color.GreenString("✓"), row.label)
				} else {
					fmt.Fprintf(out, "  %s %s\n", color.RedString("✗"), row.label)
				}
			}
			return nil
		},
	}
}

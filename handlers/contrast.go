package handlers

import (
	"net/http"

	"a11y_tracker/contrast"

	"github.com/gin-gonic/gin"
)

// CheckContrast answers GET /api/contrast?foreground=&background=.
func (h *Handler) CheckContrast(c *gin.Context) {
	fg, bg := c.Query("foreground"), c.Query("background")
	if !contrast.IsValidHex(fg) || !contrast.IsValidHex(bg) {
		badRequest(c, "foreground and background must be hex colours like #1A2B3C or #abc")
		return
	}
	fg, bg = contrast.NormalizeHex(fg), contrast.NormalizeHex(bg)
	res := contrast.Check(fg, bg)

	c.JSON(http.StatusOK, gin.H{
		"foreground":       fg,
		"background":       bg,
		"ratio":            res.Ratio,
		"passes_aa":        res.PassesAA,
		"passes_aaa":       res.PassesAAA,
		"passes_aa_large":  res.PassesAALarge,
		"passes_aaa_large": res.PassesAAALarge,
		"level":            contrast.Level(res.Ratio, false),
		"level_large":      contrast.Level(res.Ratio, true),
	})
}

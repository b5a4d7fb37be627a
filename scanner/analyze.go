package scanner

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"a11y_tracker/contrast"
	"a11y_tracker/models"
)

const (
	MinTextSize    = 12
	MinTouchTarget = 44

	normalTextRatio = 4.5
	largeTextRatio  = 3.0

	unknownFrame = "Unknown Frame"
)

var ErrPageNotFound = errors.New("page not found in document")

var interactiveHints = []string{"button", "btn", "link", "input", "tab"}

var white = Color{R: 1, G: 1, B: 1}

// AnalyzePage walks page depth-first and returns every violation found.
func AnalyzePage(page *Node) []models.IssueInput {
	issues := []models.IssueInput{}
	walk(page, page, &issues)
	return issues
}

func walk(n, page *Node, out *[]models.IssueInput) {
	if n.Type == NodeTypeText {
		if issue, ok := checkTextContrast(n, page); ok {
			*out = append(*out, issue)
		}
		if issue, ok := checkTextSize(n, page); ok {
			*out = append(*out, issue)
		}
	}
	if isInteractive(n) {
		if issue, ok := checkTouchTarget(n, page); ok {
			*out = append(*out, issue)
		}
	}
	for _, c := range n.Children {
		walk(c, page, out)
	}
}

// IsLargeText reports whether WCAG treats the text as large: 18pt, or 14pt
// when bold.
func IsLargeText(size, weight float64) bool {
	return size >= 18 || (size >= 14 && weight >= 700)
}

func checkTextContrast(n, page *Node) (models.IssueInput, bool) {
	fg, ok := n.solidFill()
	if !ok {
		return models.IssueInput{}, false
	}
	// Only the direct parent is consulted for the background.
	bg, ok := n.parent.solidFill()
	if !ok || n.parent.Type == NodeTypePage {
		bg = white
	}

	ratio := contrast.RatioRGB(rgb(fg), rgb(bg))
	required := normalTextRatio
	if IsLargeText(n.FontSize, n.FontWeight) {
		required = largeTextRatio
	}
	if ratio >= required {
		return models.IssueInput{}, false
	}

	severity := models.SeverityHigh
	if ratio < largeTextRatio {
		severity = models.SeverityCritical
	}
	current := fmt.Sprintf("%.2f:1", ratio)
	want := formatNumber(required) + ":1"

	issue := baseIssue(n, page)
	issue.Category = "contrast"
	issue.Severity = severity
	issue.WCAGCriteria = "1.4.3"
	issue.WCAGLevel = "AA"
	issue.Description = "Text contrast ratio is below WCAG AA standards"
	issue.CurrentValue = current
	issue.RequiredValue = want
	issue.FixRecommendation = fmt.Sprintf("Increase contrast between text and background. Current: %s, Required: %s", current, want)
	return issue, true
}

func checkTextSize(n, page *Node) (models.IssueInput, bool) {
	if n.FontSize >= MinTextSize {
		return models.IssueInput{}, false
	}
	issue := baseIssue(n, page)
	issue.Category = "text_size"
	issue.Severity = models.SeverityMedium
	issue.WCAGCriteria = "1.4.4"
	issue.WCAGLevel = "AA"
	issue.Description = "Text size is below recommended minimum for readability"
	issue.CurrentValue = formatNumber(n.FontSize) + "px"
	issue.RequiredValue = fmt.Sprintf("%dpx", MinTextSize)
	issue.FixRecommendation = fmt.Sprintf("Increase font size to at least %dpx for better readability", MinTextSize)
	return issue, true
}

func isInteractive(n *Node) bool {
	if n.Type == NodeTypeComponent || n.Type == NodeTypeInstance {
		return true
	}
	name := strings.ToLower(n.Name)
	for _, hint := range interactiveHints {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}

func checkTouchTarget(n, page *Node) (models.IssueInput, bool) {
	if n.Type == NodeTypePage {
		return models.IssueInput{}, false
	}
	w, h := n.Width, n.Height
	if w >= MinTouchTarget && h >= MinTouchTarget {
		return models.IssueInput{}, false
	}
	severity := models.SeverityMedium
	if w < 24 || h < 24 {
		severity = models.SeverityHigh
	}

	issue := baseIssue(n, page)
	issue.Category = "touch_target"
	issue.Severity = severity
	issue.WCAGCriteria = "2.5.5"
	issue.WCAGLevel = "AAA"
	issue.Description = "Touch target size is below recommended minimum"
	issue.CurrentValue = fmt.Sprintf("%dx%dpx", jsRound(w), jsRound(h))
	issue.RequiredValue = fmt.Sprintf("%dx%dpx", MinTouchTarget, MinTouchTarget)
	issue.FixRecommendation = fmt.Sprintf("Increase button/interactive element size to at least %dx%dpx", MinTouchTarget, MinTouchTarget)
	return issue, true
}

func baseIssue(n, page *Node) models.IssueInput {
	return models.IssueInput{
		PageID:      page.ID,
		ElementID:   n.ID,
		ElementName: n.Name,
		LocationX:   jsRound(n.X),
		LocationY:   jsRound(n.Y),
		FrameName:   FrameName(n),
	}
}

// FrameName returns the name of the nearest FRAME or COMPONENT ancestor.
func FrameName(n *Node) string {
	for cur := n.parent; cur != nil; cur = cur.parent {
		if cur.Type == NodeTypeFrame || cur.Type == NodeTypeComponent {
			return cur.Name
		}
	}
	return unknownFrame
}

func rgb(c Color) contrast.RGB {
	return contrast.RGB{R: c.R, G: c.G, B: c.B}
}

// jsRound rounds halves towards positive infinity.
func jsRound(v float64) int {
	return int(math.Floor(v + 0.5))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Result is the outcome of scanning a document.
type Result struct {
	ScanType models.ScanType
	Pages    []models.PageInput
	Issues   []models.IssueInput
}

// AnalyzeDocument scans the page with pageID, or every page when pageID is
// empty.
func AnalyzeDocument(doc *Document, pageID string) (Result, error) {
	if pageID != "" {
		page, ok := doc.Page(pageID)
		if !ok {
			return Result{}, fmt.Errorf("%w: %s", ErrPageNotFound, pageID)
		}
		return Result{
			ScanType: models.ScanTypeSinglePage,
			Pages:    []models.PageInput{{PageID: page.ID, PageName: page.Name}},
			Issues:   AnalyzePage(page),
		}, nil
	}

	res := Result{
		ScanType: models.ScanTypeFullFile,
		Pages:    make([]models.PageInput, 0, len(doc.Children)),
		Issues:   []models.IssueInput{},
	}
	for _, page := range doc.Children {
		res.Pages = append(res.Pages, models.PageInput{PageID: page.ID, PageName: page.Name})
		res.Issues = append(res.Issues, AnalyzePage(page)...)
	}
	return res, nil
}

// ScanInput builds the scan creation payload for a result.
func (r Result) ScanInput(doc *Document) models.CreateScanInput {
	key := doc.FileKey
	if key == "" {
		key = "unknown"
	}
	return models.CreateScanInput{
		FileKey:  key,
		FileName: doc.Name,
		FileURL:  "https://www.figma.com/file/" + doc.FileKey,
		ScanType: r.ScanType,
		Pages:    r.Pages,
	}
}

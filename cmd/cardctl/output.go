package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/avvvet/cardvault/internal/cardsvc/catalog"
	"github.com/avvvet/cardvault/internal/cardsvc/models"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printCards(w io.Writer, cards []models.CardView) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tPLAYER\tCARD\tSPORT\tGRADE\tTAGS")
	for i := range cards {
		c := &cards[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.PlayerDisplay(), c.Title(), text(c.Sport), c.GradeLabel(), strings.Join(c.TagLabels(), ","))
	}
	tw.Flush()
}

func printCard(w io.Writer, c *models.CardView) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Player\t%s\n", c.PlayerDisplay())
	fmt.Fprintf(tw, "Card\t%s\n", c.Title())
	fmt.Fprintf(tw, "Sport\t%s\n", text(c.Sport))
	fmt.Fprintf(tw, "Grade\t%s\n", c.GradeLabel())
	if c.GradingNo != nil {
		fmt.Fprintf(tw, "Cert\t%s\n", *c.GradingNo)
	}
	fmt.Fprintf(tw, "Tags\t%s\n", strings.Join(c.TagLabels(), ", "))
	fmt.Fprintf(tw, "Notes\t%s\n", text(c.Notes))
	for i, img := range c.Images {
		label := "Image " + strconv.Itoa(i+1)
		if i == c.PrimaryIndex() {
			label += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\n", label, img.URL)
	}
	tw.Flush()
}

func printFacets(w io.Writer, f catalog.Facets) {
	for _, d := range []catalog.Dimension{catalog.DimSport, catalog.DimPlayer, catalog.DimYear, catalog.DimType, catalog.DimTags} {
		facet := f.Get(d)
		parts := []string{fmt.Sprintf("All (%d)", facet.Total)}
		for _, o := range facet.Options {
			parts = append(parts, fmt.Sprintf("%s (%d)", o.Value, o.Count))
		}
		fmt.Fprintf(w, "%s: %s\n", d, strings.Join(parts, ", "))
	}
}

func text(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/avvvet/cardvault/internal/cardclient"
	"github.com/avvvet/cardvault/internal/cardsvc/catalog"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity this machine is signed in as",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		user, err := newClient().Me(ctx)
		if err != nil {
			return err
		}
		kind := "registered"
		if user.IsAnonymous {
			kind = "anonymous"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", user.ID, kind)
		return nil
	},
}

var listFlags struct {
	sport, player, gradeType, sort string
	year                           int
	tags                           []string
	facets                         bool
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cards, optionally filtered and sorted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gt, err := catalog.ParseGradeType(listFlags.gradeType)
		if err != nil {
			return err
		}
		key, err := catalog.ParseSortKey(listFlags.sort)
		if err != nil {
			return err
		}
		sel := catalog.Selection{
			Sport:  listFlags.sport,
			Player: listFlags.player,
			Type:   gt,
			Tags:   catalog.NormalizeLabels(listFlags.tags),
		}
		if cmd.Flags().Changed("year") {
			y := listFlags.year
			sel.Year = &y
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		res, err := newClient().ListCards(ctx, sel, key)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printCards(out, res.Cards)
		fmt.Fprintf(out, "\n%d of %d cards\n", len(res.Cards), res.Total)
		if listFlags.facets {
			printFacets(out, res.Facets)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <card-id>",
	Short: "Show one card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid card id %q", args[0])
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		card, err := newClient().GetCard(ctx, id)
		if err != nil {
			return err
		}
		printCard(cmd.OutOrStdout(), card)
		return nil
	},
}

var addFlags struct {
	form   cardclient.CardForm
	player string
	images []string
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a card",
	Long: `Add a card to the collection.

Images are given as --image path, or --image path@x,y,width,height to crop
before upload. --primary picks which image is shown first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		form := addFlags.form
		if id, err := uuid.Parse(addFlags.player); err == nil {
			form.PlayerID = &id
		} else {
			form.PlayerName = addFlags.player
		}

		for _, arg := range addFlags.images {
			img, err := readImage(arg)
			if err != nil {
				return err
			}
			form.Images = append(form.Images, img)
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		card, err := newClient().CreateCard(ctx, form)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added card %s\n", card.ID)
		return nil
	},
}

var editFlags struct {
	tags  []string
	notes string
}

var editCmd = &cobra.Command{
	Use:   "edit <card-id>",
	Short: "Replace a card's tags and notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid card id %q", args[0])
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		card, err := newClient().UpdateTags(ctx, id, editFlags.tags, editFlags.notes)
		if err != nil {
			return err
		}
		printCard(cmd.OutOrStdout(), card)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <card-id>",
	Short: "Delete a card and its photos",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid card id %q", args[0])
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := newClient().DeleteCard(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted card %s\n", id)
		return nil
	},
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List known players",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		players, err := newClient().Players(ctx)
		if err != nil {
			return err
		}
		tw := newTable(cmd.OutOrStdout())
		for _, p := range players {
			fmt.Fprintf(tw, "%s\t%s\n", p.ID, p.FullName)
		}
		return tw.Flush()
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tag suggestions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()

		tags, err := newClient().Tags(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(tags, ", "))
		return nil
	},
}

func init() {
	lf := listCmd.Flags()
	lf.StringVar(&listFlags.sport, "sport", "", "only this sport")
	lf.StringVar(&listFlags.player, "player", "", "only this player")
	lf.IntVar(&listFlags.year, "year", 0, "only this year")
	lf.StringVar(&listFlags.gradeType, "type", "", "graded or raw")
	lf.StringArrayVar(&listFlags.tags, "tag", nil, "require this tag (repeatable)")
	lf.StringVar(&listFlags.sort, "sort", "player", "player, year, brand, number or created")
	lf.BoolVar(&listFlags.facets, "facets", false, "print filter counts")

	af := addCmd.Flags()
	af.StringVar(&addFlags.player, "player", "", "player id or full name")
	af.StringVar(&addFlags.form.Sport, "sport", "", "sport")
	af.StringVar(&addFlags.form.Brand, "brand", "", "brand")
	af.StringVar(&addFlags.form.Year, "year", "", "year")
	af.StringVar(&addFlags.form.CardNo, "number", "", "card number")
	af.BoolVar(&addFlags.form.IsGraded, "graded", false, "card is graded")
	af.StringVar(&addFlags.form.GradingCompany, "company", "", "grading company")
	af.StringVar(&addFlags.form.GradingNo, "cert", "", "certification number")
	af.StringVar(&addFlags.form.Grade, "grade", "", "grade")
	af.StringArrayVar(&addFlags.form.Tags, "tag", nil, "tag (repeatable)")
	af.StringVar(&addFlags.form.Notes, "notes", "", "notes")
	af.StringArrayVar(&addFlags.images, "image", nil, "image file, optionally path@x,y,w,h (repeatable)")
	af.IntVar(&addFlags.form.Primary, "primary", 0, "index of the primary image")

	ef := editCmd.Flags()
	ef.StringArrayVar(&editFlags.tags, "tag", nil, "tag (repeatable); omitted tags are removed")
	ef.StringVar(&editFlags.notes, "notes", "", "notes; empty clears them")

	rootCmd.AddCommand(whoamiCmd, listCmd, showCmd, addCmd, editCmd, deleteCmd, playersCmd, tagsCmd)
}

func readImage(arg string) (cardclient.ImageFile, error) {
	path, crop, _ := strings.Cut(arg, "@")
	data, err := os.ReadFile(path)
	if err != nil {
		return cardclient.ImageFile{}, err
	}
	return cardclient.ImageFile{Name: filepath.Base(path), Data: data, Crop: crop}, nil
}

// describe turns service errors into something a person can act on.
func describe(err error) string {
	if errors.Is(err, cardclient.ErrPermissionDenied) {
		return "permission denied: this card belongs to another collector"
	}
	var apiErr *cardclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

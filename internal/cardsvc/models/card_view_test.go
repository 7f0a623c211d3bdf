package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestCardViewTitle(t *testing.T) {
	c := CardView{Card: Card{Year: intPtr(1957), Brand: strPtr("Topps"), CardNo: strPtr("95")}}
	assert.Equal(t, "1957 Topps #95", c.Title())

	noNumber := CardView{Card: Card{Year: intPtr(1957), Brand: strPtr("Topps")}}
	assert.Equal(t, "1957 Topps", noNumber.Title())

	numberOnly := CardView{Card: Card{CardNo: strPtr("95")}}
	assert.Equal(t, "#95", numberOnly.Title())

	empty := CardView{}
	assert.Equal(t, "", empty.Title())
}

func TestCardViewGradeLabel(t *testing.T) {
	raw := CardView{}
	assert.Equal(t, "Raw", raw.GradeLabel())

	gradedNoDetails := CardView{Card: Card{IsGraded: true}}
	assert.Equal(t, "Raw", gradedNoDetails.GradeLabel())

	graded := CardView{Card: Card{
		IsGraded:       true,
		GradingCompany: strPtr("PSA"),
		Grade:          decimal.NewNullDecimal(decimal.RequireFromString("6.5")),
		GradingNo:      strPtr("106519951"),
	}}
	assert.Equal(t, "PSA 6.5 (#106519951)", graded.GradeLabel())

	companyOnly := CardView{Card: Card{IsGraded: true, GradingCompany: strPtr("SGC")}}
	assert.Equal(t, "SGC", companyOnly.GradeLabel())
}

func TestCardViewPrimaryImage(t *testing.T) {
	none := CardView{}
	assert.Equal(t, -1, none.PrimaryIndex())
	assert.Nil(t, none.PrimaryImage())

	noPrimary := CardView{Images: []CardImage{{StoragePath: "a"}, {StoragePath: "b"}}}
	assert.Equal(t, "a", noPrimary.PrimaryImage().StoragePath)

	withPrimary := CardView{Images: []CardImage{{StoragePath: "a"}, {StoragePath: "b", IsPrimary: true}}}
	assert.Equal(t, 1, withPrimary.PrimaryIndex())
}

func TestCardViewPlayerDisplay(t *testing.T) {
	assert.Equal(t, UnknownPlayer, (&CardView{}).PlayerDisplay())
	assert.Equal(t, "Mickey Mantle", (&CardView{PlayerName: strPtr("Mickey Mantle")}).PlayerDisplay())
}

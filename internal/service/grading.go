package service

import (
	"math"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

const (
	midtermWeight = 0.4
	finalWeight   = 0.6
)

type letterBand struct {
	min    float64
	letter string
}

// bands are ordered from the highest lower bound down; lower bounds are inclusive.
var letterBands = []letterBand{
	{90, "A"},
	{85, "B+"},
	{80, "B"},
	{75, "C+"},
	{70, "C"},
	{60, "D"},
}

func roundGrade(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// TotalGrade weights the midterm and final scores. It is nil until both are present.
func TotalGrade(midterm, final *float64) *float64 {
	if midterm == nil || final == nil {
		return nil
	}
	total := roundGrade(*midterm*midtermWeight + *final*finalWeight)
	return &total
}

// LetterGrade maps a total score onto the letter scale.
func LetterGrade(total float64) string {
	total = roundGrade(total)
	for _, band := range letterBands {
		if total >= band.min {
			return band.letter
		}
	}
	return "F"
}

// applyGrades recomputes the derived grade fields of e.
func applyGrades(e *models.Enrollment) {
	e.TotalGrade = TotalGrade(e.MidtermGrade, e.FinalGrade)
	if e.TotalGrade == nil {
		e.LetterGrade = nil
		return
	}
	letter := LetterGrade(*e.TotalGrade)
	e.LetterGrade = &letter
}

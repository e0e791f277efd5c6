package grades

import "grades-dashboard-go/models"

// PassMark is the lowest passing score.
const PassMark = 7.0

// A score of exactly 1 is how some sheets record AI.
const insufficientAlias = 1.0

var (
	statusNoData = models.Status{Label: "N/D", LongLabel: "No data", Category: models.CategoryNoData}

	statusJustified = models.Status{
		Label:     models.TokenJustifiedAbsence,
		LongLabel: "Justified absence",
		Category:  models.CategoryJustifiedAbsence,
	}

	statusInsufficient = models.Status{
		Label:     models.TokenInsufficient,
		LongLabel: "Insufficient",
		IsFailed:  true,
		Category:  models.CategoryFailed,
	}
)

// EffectiveGrade returns the grade that decides a topic: the oral exam, then
// retry 2, then retry 1, then the first attempt, whichever is filled first.
func EffectiveGrade(t models.TopicGrade) models.Grade {
	for _, g := range []models.Grade{t.OralExam, t.Retry2, t.Retry1, t.First} {
		if !g.IsEmpty() {
			return g
		}
	}
	return models.EmptyGrade()
}

// Classify returns the status of a topic. It is total and deterministic.
func Classify(t models.TopicGrade) models.Status {
	g := EffectiveGrade(t)
	if g.Kind == models.GradeScore && g.Score == insufficientAlias {
		g = models.Grade{Kind: models.GradeInsufficient}
	}

	switch g.Kind {
	case models.GradeEmpty:
		return statusNoData
	case models.GradeJustifiedAbsence:
		return statusJustified
	case models.GradeInsufficient:
		return statusInsufficient
	case models.GradeScore:
		label := models.FormatScore(g.Score)
		if g.Score >= PassMark {
			return models.Status{Label: label, LongLabel: "Passed", Category: models.CategoryPassed}
		}
		return models.Status{Label: label, LongLabel: "Failed", IsFailed: true, Category: models.CategoryFailed}
	default:
		return models.Status{Label: g.Raw, LongLabel: "Failed", IsFailed: true, Category: models.CategoryFailed}
	}
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		submissionsTotal,
		quotaDenialsTotal,
		questionSetsCreatedTotal,
		profilesResetTotal,
	)
}

var (
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diary_submissions_total",
			Help: "Response submissions by outcome.",
		},
		[]string{"result"}, // 'accepted', 'quota_exceeded', 'forbidden', 'error'
	)

	quotaDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diary_quota_denials_total",
			Help: "Entitlement denials by kind.",
		},
		[]string{"kind"}, // 'answers', 'sets', 'premium_style'
	)

	questionSetsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "diary_question_sets_created_total",
			Help: "Question sets created.",
		},
	)

	profilesResetTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "diary_profiles_reset_total",
			Help: "Usage profiles reset by the weekly maintenance sweep.",
		},
	)
)

func IncSubmission(result string) {
	submissionsTotal.WithLabelValues(norm(result)).Inc()
}

func IncQuotaDenial(kind string) {
	quotaDenialsTotal.WithLabelValues(norm(kind)).Inc()
}

func IncQuestionSetCreated() {
	questionSetsCreatedTotal.Inc()
}

func IncProfilesReset(count int) {
	profilesResetTotal.Add(float64(count))
}

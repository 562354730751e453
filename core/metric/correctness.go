package metric

import "github.com/huangsam/trustscore/schema"

// Correctness is the share of issues that are closed. A project without
// issues scores 1.
func Correctness(total, closed int) float64 {
	if total <= 0 {
		return 1
	}
	return schema.Clamp01(float64(closed) / float64(total))
}

// CorrectnessFromIssues counts closed issues and applies Correctness.
func CorrectnessFromIssues(issues []schema.Issue) float64 {
	closed := 0
	for _, i := range issues {
		if i.Closed() {
			closed++
		}
	}
	return Correctness(len(issues), closed)
}

// PullRequestReview is the share of pull requests with at least one review.
// No pull requests means 0.
func PullRequestReview(prs []schema.PullRequest) float64 {
	if len(prs) == 0 {
		return 0
	}
	reviewed := 0
	for _, pr := range prs {
		if pr.Reviewed {
			reviewed++
		}
	}
	return float64(reviewed) / float64(len(prs))
}

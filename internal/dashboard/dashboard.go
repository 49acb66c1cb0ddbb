// Package dashboard computes deterministic rollups of the current cycle
// for the dashboard view.
package dashboard

import (
	"math"
	"sort"

	"okrboard/internal/model"
	"okrboard/internal/progress"
)

// HealthCounts tallies active OKRs per health status.
type HealthCounts struct {
	OnTrack  int `json:"onTrack"`
	AtRisk   int `json:"atRisk"`
	OffTrack int `json:"offTrack"`
}

// TeamSummary aggregates one team's OKRs.
type TeamSummary struct {
	Team            string       `json:"team"`
	Active          int          `json:"active"`
	Closed          int          `json:"closed"`
	AverageProgress int          `json:"averageProgress"`
	Health          HealthCounts `json:"health"`
}

// AlignmentRow reports how many active team OKRs align to one
// organizational objective.
type AlignmentRow struct {
	Objective string `json:"objective"`
	Aligned   int    `json:"aligned"`
}

// Summary is the full dashboard rollup.
type Summary struct {
	TotalActive     int            `json:"totalActive"`
	TotalClosed     int            `json:"totalClosed"`
	OverallProgress int            `json:"overallProgress"`
	Health          HealthCounts   `json:"health"`
	Teams           []TeamSummary  `json:"teams,omitempty"`
	Alignment       []AlignmentRow `json:"alignment,omitempty"`
	Unaligned       int            `json:"unaligned"`
}

// Build computes the rollup for the given organizational objectives and
// team OKRs. Closed OKRs count toward totals but not health or progress.
// Output ordering is deterministic: teams and alignment rows sort by name.
func Build(orgOkrs []model.OrgObjective, teamOkrs []model.TeamOkr) Summary {
	var summary Summary
	teams := make(map[string]*TeamSummary)
	teamProgress := make(map[string][]int)
	aligned := make(map[string]int)

	orgObjectives := make(map[string]bool, len(orgOkrs))
	for _, obj := range orgOkrs {
		orgObjectives[obj.Objective] = true
	}

	var activeProgress []int
	for _, okr := range teamOkrs {
		team := teams[okr.Team]
		if team == nil {
			team = &TeamSummary{Team: okr.Team}
			teams[okr.Team] = team
		}

		if okr.Status == model.StatusClosed {
			summary.TotalClosed++
			team.Closed++
			continue
		}

		summary.TotalActive++
		team.Active++

		overall := progress.Overall(okr.KeyResults)
		activeProgress = append(activeProgress, overall)
		teamProgress[okr.Team] = append(teamProgress[okr.Team], overall)

		switch okr.HealthOrDefault() {
		case model.HealthAtRisk:
			summary.Health.AtRisk++
			team.Health.AtRisk++
		case model.HealthOffTrack:
			summary.Health.OffTrack++
			team.Health.OffTrack++
		default:
			summary.Health.OnTrack++
			team.Health.OnTrack++
		}

		if orgObjectives[okr.AlignedTo] {
			aligned[okr.AlignedTo]++
		} else {
			summary.Unaligned++
		}
	}

	summary.OverallProgress = mean(activeProgress)

	for name, team := range teams {
		team.AverageProgress = mean(teamProgress[name])
		summary.Teams = append(summary.Teams, *team)
	}
	sort.SliceStable(summary.Teams, func(i, j int) bool {
		return summary.Teams[i].Team < summary.Teams[j].Team
	})

	for _, obj := range orgOkrs {
		summary.Alignment = append(summary.Alignment, AlignmentRow{
			Objective: obj.Objective,
			Aligned:   aligned[obj.Objective],
		})
	}

	return summary
}

func mean(values []int) int {
	if len(values) == 0 {
		return 0
	}
	total := 0
	for _, v := range values {
		total += v
	}
	return int(math.Floor(float64(total)/float64(len(values)) + 0.5))
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strconv"
	"time"
)

// Patent is one hit from the patent search API.
type Patent struct {
	PatentID         string `json:"patent_id" yaml:"patent_id"`
	PN               string `json:"pn" yaml:"pn"`
	ApplicationNo    string `json:"apno,omitempty" yaml:"apno,omitempty"`
	Title            string `json:"title" yaml:"title"`
	ApplicationDate  int    `json:"apdt,omitempty" yaml:"apdt,omitempty"`
	PublicationDate  int    `json:"pbdt,omitempty" yaml:"pbdt,omitempty"`
	OriginalAssignee string `json:"original_assignee,omitempty" yaml:"original_assignee,omitempty"`
	CurrentAssignee  string `json:"current_assignee,omitempty" yaml:"current_assignee,omitempty"`
	Inventor         string `json:"inventor,omitempty" yaml:"inventor,omitempty"`

	// Relevancy is the similarity score of a similar-patent hit, e.g. "87%".
	Relevancy string `json:"relevancy,omitempty" yaml:"relevancy,omitempty"`
}

// PatentContent is the text of one patent: bibliography, claims and the
// provider's technical summary, each present only when requested.
type PatentContent struct {
	PatentID     string `json:"patent_id" yaml:"patent_id"`
	PatentNumber string `json:"patent_number" yaml:"patent_number"`
	PatentType   string `json:"patent_type,omitempty" yaml:"patent_type,omitempty"`
	Title        string `json:"title,omitempty" yaml:"title,omitempty"`
	Abstract     string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	Claims     string `json:"claims,omitempty" yaml:"claims,omitempty"`
	ClaimCount int    `json:"claim_count,omitempty" yaml:"claim_count,omitempty"`

	BenefitSummary           string `json:"benefit_summary,omitempty" yaml:"benefit_summary,omitempty"`
	TechProblemSummary       string `json:"tech_problem_summary,omitempty" yaml:"tech_problem_summary,omitempty"`
	TechnicalApproachSummary string `json:"technical_approach_summary,omitempty" yaml:"technical_approach_summary,omitempty"`
}

// PublishedOn parses PublicationDate (YYYYMMDD). It returns the zero time
// when the date is missing or malformed.
func (p Patent) PublishedOn() time.Time {
	return parseYMD(p.PublicationDate)
}

func parseYMD(v int) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	t, err := time.Parse("20060102", strconv.Itoa(v))
	if err != nil {
		return time.Time{}
	}
	return t
}

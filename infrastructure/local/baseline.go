// Package local provides the offline candidate source used when the remote
// lookup service is unavailable, unauthorized or returns nothing useful.
package local

import "github.com/ahrav/go-icdmatch/internal/domain"

// baseline is the built-in reference table. It is never modified; readers
// always receive a copy.
var baseline = []domain.Candidate{
	{Code: "A00", Title: "Cholera", Definition: "Acute diarrheal disease caused by Vibrio cholerae."},
	{Code: "J06.9", Title: "Acute upper respiratory infection, unspecified", Definition: "Symptoms include sore throat, runny nose, cough."},
	{Code: "R50.9", Title: "Fever, unspecified", Definition: "Elevated body temperature without clear cause."},
	{Code: "E11", Title: "Type 2 diabetes mellitus", Definition: "Chronic condition characterized by insulin resistance."},
	{Code: "I10", Title: "Essential (primary) hypertension", Definition: "High blood pressure without a known secondary cause."},
	{Code: "R51.9", Title: "Headache, unspecified", Definition: "Pain in the head without a specified cause."},
	{Code: "R05.9", Title: "Cough, unspecified", Definition: "Sudden expulsion of air from the lungs without a specified cause."},
	{Code: "R11.2", Title: "Nausea with vomiting, unspecified", Definition: "Feeling of sickness accompanied by vomiting."},
	{Code: "R10.9", Title: "Unspecified abdominal pain", Definition: "Pain in the abdomen without a specified location or cause."},
}

// Baseline returns a fresh copy of the built-in reference table.
func Baseline() []domain.Candidate {
	return domain.CloneCandidates(baseline)
}

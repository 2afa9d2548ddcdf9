package resignation_test

import (
	"github.com/google/uuid"

	"peopleops/internal/resignation"
	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
)

func (s *ServiceSuite) TestGenerateLetter() {
	record := s.create()
	_, err := s.svc.AddPenalty(s.at(0), record.EmployeeID, resignation.Penalty{
		Description: "Unreturned laptop",
		Amount:      350,
		Currency:    "USD",
	}, "admin-1")
	s.Require().NoError(err)

	letter, err := s.svc.GenerateLetter(s.at(0), record.EmployeeID)
	s.Require().NoError(err)
	s.Equal(record.EmployeeID, letter.EmployeeID)
	s.Equal("2026-06-15", letter.GeneratedAt)
	s.Contains(letter.Body, "resignation-letter")
	s.Contains(letter.Body, "15 June 2026")
	s.Contains(letter.Body, "Unreturned laptop: 350.00 USD")
	s.Contains(letter.Body, "Total penalties: 350.00")
}

func (s *ServiceSuite) TestGenerateLetterUnknownEmployee() {
	_, err := s.svc.GenerateLetter(s.at(0), id.EmployeeID(uuid.New()))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

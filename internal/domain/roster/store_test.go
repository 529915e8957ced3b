package roster_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/roster/internal/domain/model"
	"github.com/okian/roster/internal/domain/roster"
	. "github.com/smartystreets/goconvey/convey"
)

const header = "Nom,Spécialité IT,Date début contrat,Date fin contrat,Temps restant (jours)\n"

func load(t *testing.T, body string, opts ...roster.Option) (*roster.Store, error) {
	t.Helper()
	return roster.Load(context.Background(), strings.NewReader(body), opts...)
}

func TestLoad(t *testing.T) {
	Convey("Given a well-formed roster", t, func() {
		body := header +
			"Alice,DevOps,2024-01-01,2024-12-31,999\n" +
			"Bob,Data,2024-02-01,2024-06-30,12\n" +
			"Chloé,Cloud,2023-09-01,2024-03-15,\n"

		Convey("When loading it", func() {
			s, err := load(t, body)

			Convey("Then every row is kept in input order", func() {
				So(err, ShouldBeNil)
				So(s.Len(), ShouldEqual, 3)
				recs := s.Records()
				So(recs[0].Name, ShouldEqual, "Alice")
				So(recs[1].Name, ShouldEqual, "Bob")
				So(recs[2].Name, ShouldEqual, "Chloé")
				So(recs[2].Row, ShouldEqual, 3)
			})

			Convey("And dates are parsed as calendar dates", func() {
				a, ok := s.Find("Alice")
				So(ok, ShouldBeTrue)
				So(a.Start.Equal(model.DateOf(2024, time.January, 1)), ShouldBeTrue)
				So(a.End.Equal(model.DateOf(2024, time.December, 31)), ShouldBeTrue)
			})

			Convey("And the supplied remaining days are not trusted", func() {
				a, _ := s.Find("Alice")
				So(a.RemainingKnown, ShouldBeFalse)
				So(s.HasRemainingColumn(), ShouldBeTrue)
			})

			Convey("And each load gets its own dataset id", func() {
				other, err := load(t, body)
				So(err, ShouldBeNil)
				So(s.ID(), ShouldNotBeEmpty)
				So(other.ID(), ShouldNotEqual, s.ID())
			})

			Convey("And no issues are reported", func() {
				So(s.Issues(), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a roster without the remaining-days column", t, func() {
		body := "Nom,Spécialité IT,Date début contrat,Date fin contrat\nAlice,DevOps,2024-01-01,2024-12-31\n"

		Convey("Then it loads because the column is derivable", func() {
			s, err := load(t, body)
			So(err, ShouldBeNil)
			So(s.Len(), ShouldEqual, 1)
			So(s.HasRemainingColumn(), ShouldBeFalse)
		})
	})

	Convey("Given a roster with extra columns and a BOM", t, func() {
		body := "\ufeffNom, Client ,Spécialité IT,Date début contrat,Date fin contrat\nAlice,ACME,DevOps,2024-01-01,2024-12-31\n"

		Convey("When loading it", func() {
			s, err := load(t, body)

			Convey("Then extra cells are carried with their column position", func() {
				So(err, ShouldBeNil)
				a, _ := s.Find("Alice")
				So(a.Extra, ShouldResemble, []model.Cell{{Index: 1, Header: "Client", Value: "ACME"}})
				So(s.Columns(), ShouldResemble, []string{"Nom", "Client", "Spécialité IT", "Date début contrat", "Date fin contrat"})
				So(s.ColumnRole(0), ShouldEqual, roster.ColumnName)
				So(s.ColumnRole(1), ShouldEqual, "")
				So(s.ColumnRole(4), ShouldEqual, roster.ColumnEnd)
				So(s.ColumnRole(5), ShouldEqual, roster.ColumnDaysRemaining)
			})
		})
	})

	Convey("Given a roster with a repeated extra header", t, func() {
		body := "Nom,Spécialité IT,Date début contrat,Date fin contrat,Note,Note
Alice,DevOps,2024-01-01,2024-12-31,first,second
"

		Convey("When loading it", func() {
			s, err := load(t, body)

			Convey("Then both cells survive", func() {
				So(err, ShouldBeNil)
				a, _ := s.Find("Alice")
				So(a.Extra, ShouldResemble, []model.Cell{
					{Index: 4, Header: "Note", Value: "first"},
					{Index: 5, Header: "Note", Value: "second"},
				})
			})
		})
	})

	Convey("Given a header written with decomposed accents", t, func() {
		decomposed := "Nom,Spe\u0301cialite\u0301 IT,Date de\u0301but contrat,Date fin contrat\n"
		s, err := load(t, decomposed+"Alice,DevOps,2024-01-01,2024-12-31\n")

		Convey("Then the columns still match", func() {
			So(err, ShouldBeNil)
			a, _ := s.Find("Alice")
			So(a.Specialty, ShouldEqual, "DevOps")
		})
	})

	Convey("Given alternative date layouts", t, func() {
		body := header +
			"A,X,2024/01/01,31/12/2024,\n" +
			"B,X,2024-01-01 08:30:00,2024-12-31T18:00:00+02:00,\n"

		Convey("Then every configured layout is accepted", func() {
			s, err := load(t, body)
			So(err, ShouldBeNil)
			a, _ := s.Find("A")
			b, _ := s.Find("B")
			So(a.End.String(), ShouldEqual, "2024-12-31")
			So(b.Start.String(), ShouldEqual, "2024-01-01")
			So(b.End.String(), ShouldEqual, "2024-12-31")
		})

		Convey("And restricting the layouts turns other formats into issues", func() {
			s, err := load(t, body, roster.WithDateLayouts(time.DateOnly))
			So(err, ShouldBeNil)
			So(len(s.Issues()), ShouldEqual, 4)
		})
	})
}

func TestLoadSchemaErrors(t *testing.T) {
	Convey("Given inputs that break the schema", t, func() {
		Convey("When a mandatory column is missing", func() {
			_, err := load(t, "Nom,Spécialité IT,Date début contrat\nAlice,DevOps,2024-01-01\n")

			Convey("Then a SchemaError names the column", func() {
				var se *roster.SchemaError
				So(errors.As(err, &se), ShouldBeTrue)
				So(errors.Is(err, roster.ErrSchema), ShouldBeTrue)
				So(se.Missing, ShouldResemble, []string{"Date fin contrat"})
				So(err.Error(), ShouldContainSubstring, "Date fin contrat")
			})
		})

		Convey("When the input is empty", func() {
			_, err := load(t, "")
			So(errors.Is(err, roster.ErrSchema), ShouldBeTrue)
		})

		Convey("When a name is empty", func() {
			_, err := load(t, header+"Alice,DevOps,2024-01-01,2024-12-31,\n ,Data,2024-01-01,2024-12-31,\n")

			Convey("Then the load fails on that row", func() {
				var se *roster.SchemaError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Row, ShouldEqual, 2)
			})
		})

		Convey("When a name is duplicated", func() {
			_, err := load(t, header+"Alice,DevOps,2024-01-01,2024-12-31,\nAlice,Data,2024-01-01,2024-12-31,\n")

			Convey("Then the load fails", func() {
				So(errors.Is(err, roster.ErrSchema), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "duplicate")
			})
		})

		Convey("When the CSV is malformed", func() {
			_, err := load(t, header+"Alice,\"DevOps,2024-01-01,2024-12-31,\n")

			Convey("Then a read error is returned", func() {
				So(errors.Is(err, roster.ErrRead), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := roster.Load(ctx, strings.NewReader(header+"Alice,DevOps,2024-01-01,2024-12-31,\n"))
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestLoadDatePolicy(t *testing.T) {
	Convey("Given a roster with an unparseable end date", t, func() {
		body := header +
			"Alice,DevOps,2024-01-01,2024-12-31,\n" +
			"Bob,Data,2024-01-01,not a date,\n" +
			"Chloé,Cloud,2024-01-01,,\n"

		Convey("When loading with the coerce policy", func() {
			s, err := load(t, body, roster.WithDatePolicy(roster.DatePolicyCoerce))

			Convey("Then the rows are kept with a null end date", func() {
				So(err, ShouldBeNil)
				So(s.Len(), ShouldEqual, 3)
				b, _ := s.Find("Bob")
				So(b.End.Valid, ShouldBeFalse)
				So(b.RawEnd, ShouldEqual, "not a date")
			})

			Convey("And each bad cell is reported", func() {
				issues := s.Issues()
				So(len(issues), ShouldEqual, 2)
				var de *roster.DateParseError
				So(errors.As(issues[0], &de), ShouldBeTrue)
				So(de.Row, ShouldEqual, 2)
				So(de.Column, ShouldEqual, roster.ColumnEnd)
				So(de.Rejected, ShouldBeFalse)
				So(errors.Is(issues[1], roster.ErrDateParse), ShouldBeTrue)
			})
		})

		Convey("When loading with the reject policy", func() {
			s, err := load(t, body, roster.WithDatePolicy(roster.DatePolicyReject))

			Convey("Then the bad rows are dropped", func() {
				So(err, ShouldBeNil)
				So(s.Len(), ShouldEqual, 1)
				_, ok := s.Find("Bob")
				So(ok, ShouldBeFalse)
			})

			Convey("And the drops are reported", func() {
				issues := s.Issues()
				So(len(issues), ShouldEqual, 2)
				So(issues[0].Error(), ShouldContainSubstring, "row rejected")
			})
		})

		Convey("When a rejected row also has an empty name", func() {
			s, err := load(t, header+",Data,2024-01-01,garbage,\n", roster.WithDatePolicy(roster.DatePolicyReject))

			Convey("Then the row is dropped rather than failing the load", func() {
				So(err, ShouldBeNil)
				So(s.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given policy names from configuration", t, func() {
		p, ok := roster.ParseDatePolicy("reject")
		So(ok, ShouldBeTrue)
		So(p, ShouldEqual, roster.DatePolicyReject)
		So(p.String(), ShouldEqual, "reject")

		p, ok = roster.ParseDatePolicy("")
		So(ok, ShouldBeTrue)
		So(p, ShouldEqual, roster.DatePolicyCoerce)

		_, ok = roster.ParseDatePolicy("strict")
		So(ok, ShouldBeFalse)
	})
}

func TestMutation(t *testing.T) {
	Convey("Given a loaded roster", t, func() {
		s, err := load(t, header+
			"Alice,DevOps,2024-01-01,2024-12-31,\n"+
			"Bob,Data,2024-01-01,2024-06-30,\n"+
			"Chloé,Cloud,2024-01-01,bad,\n")
		So(err, ShouldBeNil)

		Convey("When replacing the end date of one engagement", func() {
			newEnd := model.DateOf(2025, time.March, 1)
			n := s.ReplaceEndDate(func(e model.Engagement) bool { return e.Name == "Bob" }, newEnd)

			Convey("Then only that engagement changes", func() {
				So(n, ShouldEqual, 1)
				b, _ := s.Find("Bob")
				a, _ := s.Find("Alice")
				So(b.End.Equal(newEnd), ShouldBeTrue)
				So(b.RawEnd, ShouldEqual, "2025-03-01")
				So(a.End.String(), ShouldEqual, "2024-12-31")
			})

			Convey("And derived fields are left for the caller to refresh", func() {
				b, _ := s.Find("Bob")
				So(b.RemainingKnown, ShouldBeFalse)
			})
		})

		Convey("When transforming end dates with a predicate matching nothing", func() {
			n := s.UpdateEndDate(func(model.Engagement) bool { return false }, func(d model.Date) model.Date { return d.AddDays(1) })
			So(n, ShouldEqual, 0)
		})

		Convey("When mutating a copy returned by Records", func() {
			recs := s.Records()
			recs[0].Name = "Mallory"

			Convey("Then the store is unaffected", func() {
				_, ok := s.Find("Alice")
				So(ok, ShouldBeTrue)
				So(s.Records()[0].Name, ShouldEqual, "Alice")
			})
		})

		Convey("When refreshing derived fields", func() {
			s.UpdateDerived(model.DateOf(2024, time.March, 1), func(e *model.Engagement) {
				e.DaysRemaining = 7
				e.RemainingKnown = true
			})
			a, _ := s.Find("Alice")
			So(a.DaysRemaining, ShouldEqual, 7)
			So(s.AsOf().String(), ShouldEqual, "2024-03-01")
		})
	})
}

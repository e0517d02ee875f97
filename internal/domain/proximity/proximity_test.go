package proximity_test

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/honeycarbs/dpe-match/internal/domain"
	"github.com/honeycarbs/dpe-match/internal/domain/proximity"
)

var (
	paris = domain.Coordinate{Lat: 48.8566, Lon: 2.3522}
	lyon  = domain.Coordinate{Lat: 45.7640, Lon: 4.8357}
)

func at(lat, lon float64) *domain.Coordinate {
	return &domain.Coordinate{Lat: lat, Lon: lon}
}

func TestDistance(t *testing.T) {
	Convey("Given two points", t, func() {
		Convey("When they are identical", func() {
			So(proximity.Distance(paris, paris), ShouldEqual, 0)
		})

		Convey("When they are Paris and Lyon", func() {
			d := proximity.Distance(paris, lyon)

			Convey("Then the great-circle distance is about 392 km", func() {
				So(d, ShouldAlmostEqual, 392_000, 2_000)
			})

			Convey("Then the distance is symmetric", func() {
				So(proximity.Distance(lyon, paris), ShouldAlmostEqual, d, 1e-6)
			})
		})

		Convey("When they are antipodal", func() {
			d := proximity.Distance(domain.Coordinate{Lat: 0, Lon: 0}, domain.Coordinate{Lat: 0, Lon: 180})

			Convey("Then the result is half the circumference and not NaN", func() {
				So(math.IsNaN(d), ShouldBeFalse)
				So(d, ShouldAlmostEqual, math.Pi*proximity.EarthRadiusMeters, 1)
			})
		})
	})
}

func TestRankByProximity(t *testing.T) {
	target := domain.Coordinate{Lat: 48.8500, Lon: 2.3500}

	Convey("Given a bucket where one record has no point", t, func() {
		pool := []domain.CertificateRecord{
			{ID: "far", Location: at(48.8600, 2.3600)},
			{ID: "nopoint"},
			{ID: "near", Location: at(48.8501, 2.3501)},
		}

		result := proximity.RankByProximity(target, pool)

		Convey("Then located records are ordered nearest first", func() {
			So(result.Candidates, ShouldHaveLength, 2)
			So(result.Candidates[0].Record.ID, ShouldEqual, "near")
			So(result.Candidates[1].Record.ID, ShouldEqual, "far")
			So(result.Candidates[0].DistanceMeters, ShouldBeLessThan, result.Candidates[1].DistanceMeters)
		})

		Convey("Then the record without a point is reported, not ranked", func() {
			So(result.Excluded, ShouldResemble, []domain.Exclusion{{CertificateID: "nopoint", Reason: proximity.ReasonNoCoordinates}})
			So(result.Summary(), ShouldEqual, "3 records returned, 2 had usable coordinates")
		})
	})

	Convey("Given records at the same distance", t, func() {
		pool := []domain.CertificateRecord{
			{ID: "first", Location: at(48.8600, 2.3500)},
			{ID: "second", Location: at(48.8600, 2.3500)},
		}

		result := proximity.RankByProximity(target, pool)

		Convey("Then input order is kept", func() {
			So(result.Candidates[0].Record.ID, ShouldEqual, "first")
			So(result.Candidates[1].Record.ID, ShouldEqual, "second")
		})
	})

	Convey("Given an empty bucket", t, func() {
		result := proximity.RankByProximity(target, nil)

		Convey("Then nothing is ranked and there is no nearest", func() {
			So(result.Candidates, ShouldBeEmpty)
			So(result.Excluded, ShouldBeEmpty)
			_, ok := result.Nearest()
			So(ok, ShouldBeFalse)
			So(result.Summary(), ShouldEqual, "0 records returned, 0 had usable coordinates")
		})
	})
}

type fakeFetcher struct {
	records []domain.CertificateRecord
	err     error
	asked   string
}

func (f *fakeFetcher) FetchPostalCode(_ context.Context, postalCode string) ([]domain.CertificateRecord, error) {
	f.asked = postalCode
	return f.records, f.err
}

func TestServiceNearby(t *testing.T) {
	Convey("Given a proximity service", t, func() {
		fetcher := &fakeFetcher{records: []domain.CertificateRecord{
			{ID: "c", Location: at(48.8700, 2.3700)},
			{ID: "a", Location: at(48.8566, 2.3522)},
			{ID: "x"},
			{ID: "b", Location: at(48.8600, 2.3600)},
		}}
		svc, err := proximity.NewService(fetcher, nil, nil)
		So(err, ShouldBeNil)

		Convey("When a limit is given", func() {
			result, err := svc.Nearby(context.Background(), paris, "75004", 2)

			Convey("Then only the nearest are kept and exclusions stay complete", func() {
				So(err, ShouldBeNil)
				So(fetcher.asked, ShouldEqual, "75004")
				So(result.Candidates, ShouldHaveLength, 2)
				So(result.Candidates[0].Record.ID, ShouldEqual, "a")
				So(result.Candidates[1].Record.ID, ShouldEqual, "b")
				So(result.Excluded, ShouldHaveLength, 1)
				So(result.Summary(), ShouldEqual, "4 records returned, 3 had usable coordinates")
			})
		})

		Convey("When no limit is given", func() {
			result, err := svc.Nearby(context.Background(), paris, "75004", 0)

			Convey("Then every located record is ranked", func() {
				So(err, ShouldBeNil)
				So(result.Candidates, ShouldHaveLength, 3)
			})
		})

		Convey("When the fetch fails", func() {
			boom := errors.New("upstream down")
			fetcher.err = boom

			_, err := svc.Nearby(context.Background(), paris, "75004", 0)

			Convey("Then the error is propagated", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})
	})

	Convey("Given no fetcher", t, func() {
		_, err := proximity.NewService(nil, nil, nil)
		So(err, ShouldNotBeNil)
	})
}

package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/matchodds/internal/domain/dedupe"
	"github.com/okian/matchodds/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When a key is new", func() {
			seen := d.SeenAndRecord(ctx, "2023|2023-08-12|Arsenal|Everton")

			Convey("Then it is recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key repeats", func() {
			d.SeenAndRecord(ctx, "k")
			seen := d.SeenAndRecord(ctx, "k")

			Convey("Then it is reported as seen", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key is unrecorded", func() {
			d.SeenAndRecord(ctx, "k")
			d.Unrecord(ctx, "k")
			d.Unrecord(ctx, "missing")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "k"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 0; i < 4; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i))
		}

		Convey("Then the oldest key is evicted first", func() {
			So(d.Size(), ShouldEqual, 3)
			So(d.SeenAndRecord(ctx, "k3"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "k1"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "k0"), ShouldBeFalse)
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		for i := 0; i < 1000; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i))
		}
		So(d.Size(), ShouldEqual, 1000)
	})

	Convey("Given concurrent writers of the same keys", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if !d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each key is fresh exactly once", func() {
			So(fresh, ShouldEqual, 100)
		})
	})
}

func TestFilterMatches(t *testing.T) {
	Convey("Given a batch with a repeated fixture", t, func() {
		day := time.Date(2023, time.August, 12, 0, 0, 0, 0, time.UTC)
		a := model.HistoricalMatch{Season: "2023", Date: day, HomeTeam: "Arsenal", AwayTeam: "Everton", HomeGoals: 2}
		b := model.HistoricalMatch{Season: "2023", Date: day, HomeTeam: "Chelsea", AwayTeam: "Fulham", AwayGoals: 1}
		d := dedupe.NewInMemoryDeduper()

		fresh, dups := dedupe.FilterMatches(context.Background(), d, []model.HistoricalMatch{a, b, a})

		Convey("Then the duplicate is dropped", func() {
			So(fresh, ShouldResemble, []model.HistoricalMatch{a, b})
			So(dups, ShouldEqual, 1)
		})

		Convey("Then a second batch sees both as duplicates", func() {
			again, dups := dedupe.FilterMatches(context.Background(), d, []model.HistoricalMatch{b, a})
			So(again, ShouldBeEmpty)
			So(dups, ShouldEqual, 2)
		})
	})
}

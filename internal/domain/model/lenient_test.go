package model_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/udrf/internal/domain/model"
	"github.com/okian/udrf/internal/domain/rubric"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCount(t *testing.T) {
	Convey("Given loosely formatted counts", t, func() {
		cases := map[string]int64{
			`12`:      12,
			`"12"`:    12,
			`"1,200"`: 1200,
			`12.9`:    12,
			`-4`:      0,
			`null`:    0,
			`"many"`:  0,
			`true`:    0,
			`{}`:      0,
			`1e19`:    int64(model.MaxCount),
			`"1e300"`: int64(model.MaxCount),
		}
		for in, want := range cases {
			var c model.Count
			So(json.Unmarshal([]byte(in), &c), ShouldBeNil)
			So(c.Int(), ShouldEqual, want)
		}
	})
}

func TestAmountAndText(t *testing.T) {
	Convey("Amounts strip separators and reject negatives", t, func() {
		var a model.Amount
		So(json.Unmarshal([]byte(`"2,50,000.5"`), &a), ShouldBeNil)
		So(a.Float(), ShouldEqual, 250000.5)
		So(json.Unmarshal([]byte(`-3`), &a), ShouldBeNil)
		So(a.Float(), ShouldEqual, 0)
		So(json.Unmarshal([]byte(`"85%"`), &a), ShouldBeNil)
		So(a.Float(), ShouldEqual, 85)
	})

	Convey("Text accepts strings, numbers and string arrays", t, func() {
		var txt model.Text
		So(json.Unmarshal([]byte(`"  smart boards  "`), &txt), ShouldBeNil)
		So(txt.Len(), ShouldEqual, 12)
		So(json.Unmarshal([]byte(`42`), &txt), ShouldBeNil)
		So(txt.String(), ShouldEqual, "42")
		So(json.Unmarshal([]byte(`["a","b"]`), &txt), ShouldBeNil)
		So(txt.String(), ShouldEqual, "a\nb")
		So(json.Unmarshal([]byte(`{"x":1}`), &txt), ShouldBeNil)
		So(txt.String(), ShouldEqual, "")
	})
}

func TestMoney(t *testing.T) {
	units := rubric.UnitFactors()

	Convey("Given money in several notations", t, func() {
		Convey("An object with a unit", func() {
			var m model.Money
			So(json.Unmarshal([]byte(`{"amount": 1.5, "unit": "Crore"}`), &m), ShouldBeNil)
			So(m.In(units), ShouldEqual, 150)
		})

		Convey("A string with a trailing unit", func() {
			var m model.Money
			So(json.Unmarshal([]byte(`"12.5 lakh"`), &m), ShouldBeNil)
			So(m.Value.Float(), ShouldEqual, 12.5)
			So(m.Unit, ShouldEqual, "lakh")
			So(m.In(units), ShouldEqual, 12.5)
		})

		Convey("A rupee string", func() {
			var m model.Money
			So(json.Unmarshal([]byte(`"Rs. 5,00,000"`), &m), ShouldBeNil)
			So(m.Unit, ShouldEqual, "rupees")
			So(m.In(units), ShouldAlmostEqual, 5, 1e-9)
		})

		Convey("Rupee symbol and spelled-out prefixes", func() {
			cases := map[string]float64{
				`"₹5 lakh"`:         5,
				`"₹ 50,000"`:        0.5,
				`"Rupees 5,00,000"`: 5,
				`"rupee 1,00,000"`:  1,
				`"INR 2,00,000"`:    2,
			}
			for in, want := range cases {
				var m model.Money
				So(json.Unmarshal([]byte(in), &m), ShouldBeNil)
				So(m.In(units), ShouldAlmostEqual, want, 1e-9)
			}

			var m model.Money
			So(json.Unmarshal([]byte(`"₹ 50,000"`), &m), ShouldBeNil)
			So(m.Unit, ShouldEqual, "rupees")
			So(json.Unmarshal([]byte(`"₹5 lakh"`), &m), ShouldBeNil)
			So(m.Unit, ShouldEqual, "lakh")
		})

		Convey("A bare number is taken as lakh", func() {
			var m model.Money
			So(json.Unmarshal([]byte(`8`), &m), ShouldBeNil)
			So(m.In(units), ShouldEqual, 8)
		})

		Convey("Garbage decodes to zero", func() {
			var m model.Money
			So(json.Unmarshal([]byte(`"lots"`), &m), ShouldBeNil)
			So(m.In(units), ShouldEqual, 0)
		})
	})
}

func TestList(t *testing.T) {
	Convey("Given list fields", t, func() {
		Convey("A structured list is counted by entries", func() {
			var l model.List
			So(json.Unmarshal([]byte(`[{"title":"AI"},{"name":"ML"},"Data","-",null]`), &l), ShouldBeNil)
			n, src := l.Len()
			So(n, ShouldEqual, 3)
			So(src, ShouldEqual, model.ListFromItems)
		})

		Convey("A free-form text list is parsed", func() {
			var l model.List
			So(json.Unmarshal([]byte(`"Course A, Course B; Course C\n- Course D, N/A"`), &l), ShouldBeNil)
			n, src := l.Len()
			So(n, ShouldEqual, 4)
			So(src, ShouldEqual, model.ListFromText)
		})

		Convey("A scalar count is trusted when nothing else is present", func() {
			var l model.List
			So(json.Unmarshal([]byte(`"7"`), &l), ShouldBeNil)
			n, _ := l.Len()
			So(n, ShouldEqual, 1)

			So(json.Unmarshal([]byte(`7`), &l), ShouldBeNil)
			n, src := l.Len()
			So(n, ShouldEqual, 7)
			So(src, ShouldEqual, model.ListFromCount)
		})

		Convey("An object prefers items over count", func() {
			var l model.List
			So(json.Unmarshal([]byte(`{"items":["a","b"],"count":9}`), &l), ShouldBeNil)
			n, _ := l.Len()
			So(n, ShouldEqual, 2)

			So(json.Unmarshal([]byte(`{"count":"9"}`), &l), ShouldBeNil)
			n, _ = l.Len()
			So(n, ShouldEqual, 9)
		})

		Convey("A huge reported count is clamped, not dropped", func() {
			var l model.List
			So(json.Unmarshal([]byte(`{"count": 1e19}`), &l), ShouldBeNil)
			n, src := l.Len()
			So(n, ShouldEqual, int64(model.MaxCount))
			So(src, ShouldEqual, model.ListFromCount)
		})

		Convey("Empty and placeholder input counts zero", func() {
			for _, in := range []string{`null`, `""`, `"not provided"`, `[]`, `false`} {
				var l model.List
				So(json.Unmarshal([]byte(in), &l), ShouldBeNil)
				n, src := l.Len()
				So(n, ShouldEqual, 0)
				So(src, ShouldEqual, model.ListEmpty)
			}
		})
	})
}

func TestRawDataDecode(t *testing.T) {
	Convey("Given a partial and malformed raw record", t, func() {
		payload := `{
			"department_id": "cs",
			"academic_year": "2023-24",
			"nep_initiatives": {"initiatives": ["a","b","c"], "applications_received": "300", "seats_available": 100},
			"governance": {"infrastructure": {"library": "Digital library with 20k e-books"}, "alumni_funding": "12 lakh"},
			"student_support": "oops",
			"documents": [{"id":"d1","section":"II","title":"NEP report"}]
		}`
		var raw model.RawData
		err := json.Unmarshal([]byte(payload), &raw)

		Convey("Then known fields decode and the rest stay zero", func() {
			So(err, ShouldBeNil)
			So(raw.DepartmentID, ShouldEqual, "cs")
			n, _ := raw.NEPInitiatives.Initiatives.Len()
			So(n, ShouldEqual, 3)
			So(raw.StudentSupport.GraduatingStudents.Int(), ShouldEqual, 0)
		})

		Convey("Then broken JSON is still an error", func() {
			So(json.Unmarshal([]byte(`{"department_id":`), &raw), ShouldNotBeNil)
		})
	})

	Convey("Given a well-formed partial raw record", t, func() {
		payload := `{
			"department_id": "cs",
			"nep_initiatives": {"initiatives": ["a","b","c"], "applications_received": "300", "seats_available": 100},
			"governance": {"infrastructure": {"library": "Digital library with 20k e-books"}, "alumni_funding": "12 lakh"},
			"documents": [{"id":"d1","section":"II","title":"NEP report"}]
		}`
		var raw model.RawData
		So(json.Unmarshal([]byte(payload), &raw), ShouldBeNil)
		n, _ := raw.NEPInitiatives.Initiatives.Len()
		So(n, ShouldEqual, 3)
		So(raw.NEPInitiatives.ApplicationsReceived.Int(), ShouldEqual, 300)
		So(raw.Governance.Infrastructure.Part("library").Len(), ShouldBeGreaterThan, 10)
		So(raw.Governance.Infrastructure.Part("ict").Len(), ShouldEqual, 0)
		So(raw.Governance.AlumniFunding.In(rubric.UnitFactors()), ShouldEqual, 12)
		So(raw.StudentSupport.GraduatingStudents.Int(), ShouldEqual, 0)
		So(raw.DocumentsFor("II"), ShouldEqual, 1)
		So(raw.DocumentsFor("I"), ShouldEqual, 0)
	})
}

func TestInfrastructurePart(t *testing.T) {
	Convey("Every infrastructure part named by the rubric resolves to its field", t, func() {
		infra := model.Infrastructure{
			Classrooms:   "classrooms text",
			Laboratories: "laboratories text",
			Library:      "library text",
			ICT:          "ict text",
		}
		it, _, ok := rubric.Default().FindItem(rubric.ItemInfrastructure)
		So(ok, ShouldBeTrue)
		So(it.Parts, ShouldHaveLength, 4)
		for _, name := range it.Parts {
			So(infra.Part(name).String(), ShouldEqual, name+" text")
		}
		So(infra.Part("gym").String(), ShouldEqual, "")
	})
}

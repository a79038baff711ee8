// Package fixture generates synthetic weather files in every supported
// encoding. The values follow smooth seasonal and diurnal cycles so that
// outputs are deterministic and physically plausible.
package fixture

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/weather-normalizer/internal/domain"
)

// Geneva is the default site written into EPW headers.
var Geneva = domain.Site{
	Name:      "Geneva",
	Code:      "GEN",
	WMO:       "067700",
	Latitude:  46.23,
	Longitude: 6.10,
	TimeZone:  1.0,
	Altitude:  410,
}

// Hour is one synthetic observation.
type Hour struct {
	Time  time.Time
	TDB   float64
	TDP   float64
	RH    float64
	GHI   float64
	DNI   float64
	DHI   float64
	WSpd  float64
	WDr   float64
	AtmPr float64
}

// Synthetic returns n consecutive hours starting at start.
func Synthetic(start time.Time, n int) []Hour {
	out := make([]Hour, n)
	for i := range out {
		ts := start.Add(time.Duration(i) * time.Hour)
		season := math.Sin(2 * math.Pi * float64(ts.YearDay()-105) / 365)
		diurnal := math.Sin(2 * math.Pi * float64(ts.Hour()-9) / 24)

		tdb := round1(9 + 10*season + 4*diurnal)
		rh := math.Round(70 - 15*diurnal)
		sun := math.Max(0, math.Sin(math.Pi*float64(ts.Hour()-6)/12))
		ghi := math.Round((450 + 350*season) * sun)

		out[i] = Hour{
			Time:  ts,
			TDB:   tdb,
			TDP:   round1(tdb - (100-rh)/5),
			RH:    rh,
			GHI:   ghi,
			DNI:   math.Round(ghi * 0.7),
			DHI:   math.Round(ghi * 0.3),
			WSpd:  round1(3 + 2*math.Abs(diurnal)),
			WDr:   float64((i * 15) % 360),
			AtmPr: 96500,
		}
	}
	return out
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func ff(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// WriteEPW writes an EPW file with the given site header and hours. A
// complete year has 8760 hours starting on January 1st.
func WriteEPW(w io.Writer, site domain.Site, hours []Hour) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "LOCATION,%s,-,CHE,IWEC Data,%s,%s,%s,%s,%s\n",
		site.Name, site.WMO, ff(site.Latitude), ff(site.Longitude), ff(site.TimeZone), ff(site.Altitude))
	for _, l := range []string{
		"DESIGN CONDITIONS,0",
		"TYPICAL/EXTREME PERIODS,0",
		"GROUND TEMPERATURES,0",
		"HOLIDAYS/DAYLIGHT SAVINGS,No,0,0,0",
		"COMMENTS 1,synthetic data",
		"COMMENTS 2,",
		"DATA PERIODS,1,1,Data,Sunday, 1/ 1,12/31",
	} {
		fmt.Fprintln(bw, l)
	}
	for _, h := range hours {
		fmt.Fprintf(bw,
			"%d,%d,%d,%d,60,A7A7A7A7*0?9?9?9?9?9?9?9A7A7A7A7A7A7*0E8*0*0,%s,%s,%s,%s,0,1415,300,%s,%s,%s,0,0,0,0,%s,%s,5,5,16.1,77777,9,999999999,0,0.1,0,88,0.2,0,1\n",
			h.Time.Year(), int(h.Time.Month()), h.Time.Day(), h.Time.Hour()+1,
			ff(h.TDB), ff(h.TDP), ff(h.RH), ff(h.AtmPr),
			ff(h.GHI), ff(h.DNI), ff(h.DHI),
			ff(h.WDr), ff(h.WSpd))
	}
	return bw.Flush()
}

// WriteESPr writes an ESP-r ASCII climate file. hours is written in day
// blocks of 24, so its length should be a multiple of 24.
func WriteESPr(w io.Writer, site domain.Site, hours []Hour) error {
	bw := bufio.NewWriter(w)
	year := 2017
	if len(hours) > 0 {
		year = hours[0].Time.Year()
	}
	header := []string{
		"*CLIMATE",
		"# ascii weather file from synthetic data",
		fmt.Sprintf("# site %s", site.Name),
		fmt.Sprintf("%d  %s  %s  %s  # year, lat, long diff, direct normal flag", year, ff(site.Latitude), ff(site.Longitude), "1"),
		"1  365  # period",
		"# columns: global solar, dry bulb, direct solar, wind speed, wind dir, rel hum",
		"#  units:   W/m2  0.1C  W/m2  0.1m/s  deg  %",
		"#",
		"#",
		"#",
		"#",
		"#",
		"#",
	}
	for _, l := range header {
		fmt.Fprintln(bw, l)
	}
	for b := 0; b+24 <= len(hours); b += 24 {
		ts := hours[b].Time
		fmt.Fprintf(bw, "* day %d month %d\n", ts.YearDay(), int(ts.Month()))
		for _, h := range hours[b : b+24] {
			fmt.Fprintf(bw, "%d %d %d %d %d %d\n",
				int(h.GHI), int(math.Round(h.TDB*10)), int(h.DNI),
				int(math.Round(h.WSpd*10)), int(h.WDr), int(h.RH))
		}
	}
	return bw.Flush()
}

// WriteTable writes the plain 11-column tabular layout.
func WriteTable(w io.Writer, hours []Hour) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "month,day,hour,tdb,tdp,rh,ghi,dni,dhi,wspd,wdr")
	for _, h := range hours {
		fmt.Fprintf(bw, "%d,%d,%d,%s,%s,%s,%s,%s,%s,%s,%s\n",
			int(h.Time.Month()), h.Time.Day(), h.Time.Hour(),
			ff(h.TDB), ff(h.TDP), ff(h.RH), ff(h.GHI), ff(h.DNI), ff(h.DHI), ff(h.WSpd), ff(h.WDr))
	}
	return bw.Flush()
}

// WriteNCDC writes an NCDC surface export. Every hour is reported twice,
// at :00 and :30, to exercise aggregation.
func WriteNCDC(w io.Writer, wmo string, hours []Hour) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "Identification,,Date,HrMn,I,Type,QCP,Dir,Q,I,Spd,Q,Temp,Q,Dewpt,Q,Slp,Q,RHx")
	fmt.Fprintln(bw, "USAF,NCDC,Date,HrMn,I,Type,QCP,Dir,Q,I,Spd,Q,Temp,Q,Dewpt,Q,Slp,Q,RHx")
	for _, h := range hours {
		for _, minute := range []int{0, 30} {
			fmt.Fprintf(bw, "%s,99999,%s,%02d%02d,4,FM-12,V020,%s,1,N,%s,1,%s,1,%s,1,%s,1,%s\n",
				wmo, h.Time.Format("20060102"), h.Time.Hour(), minute,
				ff(h.WDr), ff(h.WSpd), ff(h.TDB), ff(h.TDP), ff(h.AtmPr/100), ff(h.RH))
		}
	}
	return bw.Flush()
}

// WriteNSRDB writes an NSRDB solar file. The SUNY triple is blank at night
// so that the METSTAT estimate takes over.
func WriteNSRDB(w io.Writer, hours []Hour) error {
	bw := bufio.NewWriter(w)
	cols := make([]string, 32)
	for i := range cols {
		cols[i] = "c" + strconv.Itoa(i)
	}
	fmt.Fprintln(bw, strings.Join(cols, ","))
	for _, h := range hours {
		row := make([]string, 32)
		for i := range row {
			row[i] = "0"
		}
		row[0] = h.Time.Format("2006-01-02")
		row[1] = fmt.Sprintf("%d:00", h.Time.Hour())
		row[6], row[9], row[12] = ff(h.GHI), ff(h.DNI), ff(h.DHI)
		if h.GHI > 0 {
			row[15], row[17], row[19] = ff(h.GHI+1), ff(h.DNI+1), ff(h.DHI+1)
		} else {
			row[15], row[17], row[19] = "", "", ""
		}
		row[27], row[29], row[31] = "9999", "9999", "9999"
		fmt.Fprintln(bw, strings.Join(row, ","))
	}
	return bw.Flush()
}

// WriteMeteoSuisse writes a semicolon-separated MeteoSuisse export.
func WriteMeteoSuisse(w io.Writer, stationCode string, hours []Hour) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "stn;time;gre000h0;prestah0;tre200h0;ure200h0;tde200h0;fkl010h0;dkl010h0")
	for _, h := range hours {
		fmt.Fprintf(bw, "%s;%s;%s;%s;%s;%s;%s;%s;%s\n",
			stationCode, h.Time.Format("2006010215"),
			ff(h.GHI), ff(h.AtmPr/100), ff(h.TDB), ff(h.RH), ff(h.TDP), ff(h.WSpd), ff(h.WDr))
	}
	return bw.Flush()
}

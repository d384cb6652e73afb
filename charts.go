package main

import (
	"fmt"
	"time"

	"github.com/pivolan/climate_charts/dataset"
	"github.com/pivolan/climate_charts/domain/models"
	"github.com/pivolan/climate_charts/plot"
	"github.com/pivolan/climate_charts/reshape"
)

// pipeline loads one source file and turns it into one chart.
type pipeline struct {
	Name        string
	Source      string
	Output      string
	Aggregation string
	Options     dataset.Options
	// Build reshapes the table and returns the chart, plus the matrix behind it for heatmaps.
	Build func(t *dataset.Table, agg reshape.AggFunc, dpi float64) (plot.Drawer, *models.Matrix, error)
}

const (
	weatherFile   = "weather_data.csv"
	anomalyFile   = "global_temp.csv"
	minnesotaFile = "minnesota_weather.csv"
)

var monthColumns = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

func weatherOptions() dataset.Options {
	return dataset.Options{
		Types: map[string]dataset.Kind{
			"month":        dataset.KindNumber,
			"avg_temp":     dataset.KindNumber,
			"avg_humidity": dataset.KindNumber,
			"precip":       dataset.KindNumber,
		},
		NullValues:  []string{"NA"},
		TraceValues: map[string][]string{"precip": {"T"}},
		Required:    []string{"city", "month", "avg_temp", "avg_humidity", "precip"},
	}
}

func anomalyOptions() dataset.Options {
	types := map[string]dataset.Kind{"year": dataset.KindNumber}
	for _, m := range monthColumns {
		types[m] = dataset.KindNumber
	}
	return dataset.Options{
		SkipRows:   1,
		Types:      types,
		NullValues: []string{"***"},
		Required:   append([]string{"year"}, monthColumns...),
	}
}

func minnesotaOptions() dataset.Options {
	return dataset.Options{
		Types: map[string]dataset.Kind{
			"year":   dataset.KindNumber,
			"mo":     dataset.KindNumber,
			"precip": dataset.KindNumber,
		},
		NullValues:   []string{"NA"},
		Required:     []string{"site", "year", "mo", "precip"},
		DerivedDates: []dataset.DerivedDate{{Column: "date", Year: "year", Month: "mo"}},
	}
}

func pipelines() []pipeline {
	return []pipeline{
		{
			Name:        "weather_heatmap",
			Source:      weatherFile,
			Output:      "weather_heatmap.png",
			Aggregation: "mean",
			Options:     weatherOptions(),
			Build:       buildWeatherHeatmap,
		},
		{
			Name:    "weather_scatter",
			Source:  weatherFile,
			Output:  "weather_scatter.png",
			Options: weatherOptions(),
			Build:   buildWeatherScatter,
		},
		{
			Name:    "global_temp_heatmap",
			Source:  anomalyFile,
			Output:  "global_temp_heatmap.png",
			Options: anomalyOptions(),
			Build:   buildAnomalyHeatmap,
		},
		{
			Name:        "minnesota_precip_line",
			Source:      minnesotaFile,
			Output:      "minnesota_precip_line.png",
			Aggregation: "mean",
			Options:     minnesotaOptions(),
			Build:       buildMinnesotaLine,
		},
	}
}

func buildWeatherHeatmap(t *dataset.Table, agg reshape.AggFunc, dpi float64) (plot.Drawer, *models.Matrix, error) {
	long, err := reshape.GroupBy(t, []string{"city", "month"}, "avg_temp", agg)
	if err != nil {
		return nil, nil, err
	}
	m, err := reshape.Pivot(long, "city", "month", "avg_temp",
		reshape.AxisFromColumn(long, "city"), models.MonthAxis("month", false))
	if err != nil {
		return nil, nil, err
	}
	m.Name = "weather_heatmap"
	return plot.NewHeatmap("weather_heatmap", m, plot.HeatmapStyle{
		Size:          plot.Size{Width: 10, Height: 4, DPI: dpi},
		Title:         "Average monthly temperature by city",
		XLabel:        "Month",
		YLabel:        "City",
		ColorbarLabel: "Average temperature",
		Annotate:      true,
		Format:        "%.1f",
	}), m, nil
}

func buildWeatherScatter(t *dataset.Table, _ reshape.AggFunc, dpi float64) (plot.Drawer, *models.Matrix, error) {
	set, err := reshape.ScatterPoints(t, "avg_humidity", "avg_temp", "city", "precip")
	if err != nil {
		return nil, nil, err
	}
	return plot.NewScatter("weather_scatter", set, plot.ScatterStyle{
		Size:      plot.Size{Width: 9, Height: 6, DPI: dpi},
		Title:     "Daily weather: temperature vs humidity with precipitation (size)",
		XLabel:    "Average relative humidity (%)",
		YLabel:    "Average temperature (°F)",
		HueTitle:  "City",
		SizeTitle: "Precipitation",
	}), nil, nil
}

func buildAnomalyHeatmap(t *dataset.Table, _ reshape.AggFunc, dpi float64) (plot.Drawer, *models.Matrix, error) {
	long, err := reshape.Melt(t, "year", monthColumns, "month", "anomaly")
	if err != nil {
		return nil, nil, err
	}
	long, err = reshape.Recode(long, "month", reshape.MonthNameToNumber)
	if err != nil {
		return nil, nil, err
	}
	years := reshape.AxisFromColumn(long, "year")
	m, err := reshape.Pivot(long, "year", "month", "anomaly", years, models.MonthAxis("month", true))
	if err != nil {
		return nil, nil, err
	}
	m.Name = "global_temp_heatmap"
	return plot.NewHeatmap("global_temp_heatmap", m, plot.HeatmapStyle{
		Size:           plot.Size{Width: 10, Height: 8, DPI: dpi},
		Title:          fmt.Sprintf("Global land–ocean temperature anomalies (%s–%s)", years.Keys[0], years.Keys[years.Len()-1]),
		XLabel:         "Month",
		YLabel:         "Year",
		ColorbarLabel:  "Temperature anomaly (°C relative to 1951–1980)",
		FixedRange:     true,
		VMin:           -1.5,
		VMax:           1.5,
		XLabelRotation: 45,
	}), m, nil
}

func buildMinnesotaLine(t *dataset.Table, agg reshape.AggFunc, dpi float64) (plot.Drawer, *models.Matrix, error) {
	coll, err := reshape.BuildSeries(t, "site", "date", "precip", agg)
	if err != nil {
		return nil, nil, err
	}
	first, last := seriesSpan(coll)
	return plot.NewLine("minnesota_precip_line", coll, plot.LineStyle{
		Size:        plot.Size{Width: 10, Height: 6, DPI: dpi},
		Title:       fmt.Sprintf("Monthly precipitation by Minnesota site (%d–%d)", first.Year(), last.Year()),
		XLabel:      "Year",
		YLabel:      "Precipitation (inches)",
		LegendTitle: "Site",
	}), nil, nil
}

func seriesSpan(coll models.SeriesCollection) (first, last time.Time) {
	for _, key := range coll.Keys {
		for _, p := range coll.Series[key].Points {
			if first.IsZero() || p.Date.Before(first) {
				first = p.Date
			}
			if p.Date.After(last) {
				last = p.Date
			}
		}
	}
	return first, last
}

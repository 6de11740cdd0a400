// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package charts renders static HTML fragments that plot a CSV data
// source with the YUI charting library. There is no server-side
// computation; the fragments fetch and parse the CSV in the browser.
package charts

import (
	"fmt"
	"strings"
	"text/template"
)

var headerTemplate = template.Must(template.New("header").Parse(`<style type="text/css">
    #{{.Name}} {
        width: {{.Width}}px;
        height: {{.Height}}px;
    }
</style>
<script src="http://yui.yahooapis.com/3.17.2/build/yui/yui-min.js">
</script>
`))

var chartTemplate = template.Must(template.New("chart").Parse(`<div id="{{.Name}}"></div>
<script>
YUI().use(['charts-legend', 'datasource'], function (Y) {
    var chart = new Y.Chart({
        dataProvider: [],
        render: "#{{.Name}}",
        styles: {
            axes: {
                time: {
                    label: { rotation: -45, color: "#000000" }
                },
                values: {
                    label: { color: "#000000" },
                    alwaysShowZero: true,
                    scaleType: "logarithmic"
                }
            },
            series: {
                {{.SeriesStyles}}
            }
        },
        categoryKey: "time",
        categoryType: "time",
        valueAxisName: "values",
        seriesKeys: [ {{.SeriesKeys}} ],
        showMarkers: false,
        legend: { position: "bottom" }
    });

    var parseDate = function (val) { return new Date(+val); };
    var parseNum = function (val) { return +val; };

    var csv = new Y.DataSource.IO({source: "{{.Source}}"});
    csv.plug(Y.Plugin.DataSourceTextSchema, {
        schema: {
            resultDelimiter: "\n",
            fieldDelimiter: ",",
            resultFields: [
                {key: "time", parser: parseDate},
                {{.SeriesSchemaFields}}
            ]}});
    csv.sendRequest({request: "", on: {
        success: function (e) {
            e.response.results.shift();  // remove CSV header
            chart.set("dataProvider", e.response.results);
        },
        failure: function (e) {
            console.log("Failed to fetch {{.Source}}: " +
                        e.error.message);
        }}});
});
</script>
`))

// Header returns the HTML that declares the chart's style and loads
// YUI. It belongs in the page's head element.
func Header(name string, width, height int) string {
	var b strings.Builder
	_ = headerTemplate.Execute(&b, struct {
		Name          string
		Width, Height int
	}{name, width, height})
	return b.String()
}

// Chart returns the HTML that renders a chart of the named series,
// fed by the CSV document at source. The CSV's first column is a
// millisecond timestamp and its header row is discarded.
func Chart(source string, keys []string, name string) string {
	styles := make([]string, len(keys))
	quoted := make([]string, len(keys))
	schema := make([]string, len(keys))
	for i, key := range keys {
		quoted[i] = fmt.Sprintf("%q", key)
		styles[i] = fmt.Sprintf(`%q: { line: { weight: "2mm" } }`, key)
		schema[i] = fmt.Sprintf(`{key: %q, parser: parseNum}`, key)
	}

	var b strings.Builder
	_ = chartTemplate.Execute(&b, struct {
		Name               string
		Source             string
		SeriesKeys         string
		SeriesStyles       string
		SeriesSchemaFields string
	}{
		Name:               name,
		Source:             source,
		SeriesKeys:         strings.Join(quoted, ", "),
		SeriesStyles:       strings.Join(styles, ", "),
		SeriesSchemaFields: strings.Join(schema, ", "),
	})
	return b.String()
}

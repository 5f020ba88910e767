package report

// dashboardTemplate is the single-page dashboard layout. It loads
// Tailwind and Chart.js from CDNs so the generated file needs no local
// assets.
const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - {{.CompanyName}}</title>
    <script src="https://cdn.tailwindcss.com"></script>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        .gradient-bg { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); }
        .card { background: white; border-radius: 12px; box-shadow: 0 4px 6px -1px rgba(0, 0, 0, 0.1); }
        .metric-card { transition: transform 0.2s; }
        .metric-card:hover { transform: translateY(-2px); }
        .data-table { font-size: 0.875rem; }
        .confidence-high { color: #10b981; }
        .confidence-medium { color: #f59e0b; }
        .confidence-low { color: #ef4444; }
    </style>
</head>
<body class="bg-gray-100 min-h-screen">
    <header class="gradient-bg text-white py-8 px-4">
        <div class="max-w-7xl mx-auto">
            <h1 class="text-3xl font-bold mb-2">{{.CompanyName}}</h1>
            <p class="text-lg opacity-90">{{.Domain}}</p>
            <p class="text-sm opacity-75 mt-2">Generated: {{.GeneratedAt}} | Rounds: {{.RoundsDisplay}}</p>
        </div>
    </header>

    <main class="max-w-7xl mx-auto px-4 py-8">
        <div class="card p-6 mb-8">
            <h2 class="text-xl font-semibold mb-4 text-gray-800">Valuation Summary</h2>
            <div class="grid grid-cols-1 md:grid-cols-3 gap-6">
                <div class="text-center p-4 bg-gradient-to-br from-green-50 to-green-100 rounded-lg">
                    <p class="text-sm text-gray-600 mb-1">Estimated Valuation</p>
                    <p class="text-3xl font-bold text-green-600">{{.ValuationDisplay}}</p>
                </div>
                <div class="text-center p-4 bg-gray-50 rounded-lg">
                    <p class="text-sm text-gray-600 mb-1">Valuation Range</p>
                    <p class="text-xl font-semibold text-gray-700">{{.RangeDisplay}}</p>
                </div>
                <div class="text-center p-4 bg-gray-50 rounded-lg">
                    <p class="text-sm text-gray-600 mb-1">Confidence Score</p>
                    <p class="text-2xl font-bold {{.ConfidenceColor}}">{{.ConfidenceDisplay}}</p>
                </div>
            </div>
        </div>

        {{if .Summary}}
        <div class="card p-6 mb-8">
            <h2 class="text-xl font-semibold mb-4 text-gray-800">Executive Summary</h2>
            <p class="text-gray-700 whitespace-pre-line">{{.Summary}}</p>
        </div>
        {{end}}

        <div class="grid grid-cols-2 md:grid-cols-3 lg:grid-cols-6 gap-4 mb-8">
            {{range .KeyMetrics}}
            <div class="metric-card card p-4">
                <p class="text-sm text-gray-500 mb-1">{{.Label}}</p>
                <p class="text-lg font-semibold {{.Color}}">{{.Value}}</p>
            </div>
            {{end}}
        </div>

        <div class="grid grid-cols-1 lg:grid-cols-2 gap-6 mb-8">
            <div class="card p-6">
                <h3 class="text-lg font-semibold mb-4 text-gray-800">Valuation Factors</h3>
                <canvas id="factorsChart" height="200"></canvas>
            </div>
            <div class="card p-6">
                <h3 class="text-lg font-semibold mb-4 text-gray-800">Data Sources</h3>
                <canvas id="sourcesChart" height="200"></canvas>
            </div>
        </div>

        {{if .MetricTables}}
        <div class="mb-8">
            <h2 class="text-xl font-semibold mb-4 text-gray-800">Detailed Metrics</h2>
            {{range .MetricTables}}
            <div class="card p-6 mb-6">
                <h3 class="text-lg font-semibold mb-4 text-gray-800">{{.Category}}</h3>
                <div class="overflow-x-auto">
                    <table class="w-full data-table">
                        <thead class="bg-gray-50">
                            <tr>
                                <th class="py-2 px-4 text-left font-medium text-gray-600">Metric</th>
                                <th class="py-2 px-4 text-left font-medium text-gray-600">Value</th>
                                <th class="py-2 px-4 text-left font-medium text-gray-600">Unit</th>
                                <th class="py-2 px-4 text-left font-medium text-gray-600">Description</th>
                            </tr>
                        </thead>
                        <tbody>
                            {{range .Metrics}}
                            <tr class="border-b hover:bg-gray-50">
                                <td class="py-2 px-4 font-medium">{{.Name}}</td>
                                <td class="py-2 px-4">{{.Value}}</td>
                                <td class="py-2 px-4 text-gray-500">{{.Unit}}</td>
                                <td class="py-2 px-4 text-gray-500 text-sm">{{.Description}}</td>
                            </tr>
                            {{end}}
                        </tbody>
                    </table>
                </div>
            </div>
            {{end}}
        </div>
        {{end}}

        {{if .Iterations}}
        <div class="card p-6 mb-8">
            <h2 class="text-xl font-semibold mb-4 text-gray-800">Collection History</h2>
            <div class="overflow-x-auto">
                <table class="w-full data-table">
                    <thead class="bg-gray-50">
                        <tr>
                            <th class="py-2 px-4 text-left font-medium text-gray-600">Round</th>
                            <th class="py-2 px-4 text-left font-medium text-gray-600">Data Points</th>
                            <th class="py-2 px-4 text-left font-medium text-gray-600">Sources Used</th>
                            <th class="py-2 px-4 text-left font-medium text-gray-600">Duration</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Iterations}}
                        <tr class="border-b hover:bg-gray-50">
                            <td class="py-2 px-4 font-medium">Round {{.Round}}</td>
                            <td class="py-2 px-4">{{.Points}}</td>
                            <td class="py-2 px-4 text-sm">{{.Sources}}</td>
                            <td class="py-2 px-4">{{.Duration}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
        </div>
        {{end}}

        <div class="card p-6">
            <h2 class="text-xl font-semibold mb-4 text-gray-800">Raw Data Points</h2>
            {{range .SourceSections}}
            <details class="mb-4">
                <summary class="cursor-pointer bg-gray-100 p-3 rounded-lg font-medium hover:bg-gray-200">
                    {{.Title}} ({{.Count}} points)
                </summary>
                <div class="mt-2 overflow-x-auto">
                    <table class="w-full data-table">
                        <thead class="bg-gray-50">
                            <tr>
                                <th class="py-2 px-4 text-left font-medium text-gray-600">Key</th>
                                <th class="py-2 px-4 text-left font-medium text-gray-600">Value</th>
                                <th class="py-2 px-4 text-left font-medium text-gray-600">Confidence</th>
                                <th class="py-2 px-4 text-left font-medium text-gray-600">Round</th>
                            </tr>
                        </thead>
                        <tbody>
                            {{range .Points}}
                            <tr class="border-b hover:bg-gray-50">
                                <td class="py-2 px-4 font-mono text-sm">{{.Key}}</td>
                                <td class="py-2 px-4 text-sm">{{.Value}}</td>
                                <td class="py-2 px-4 {{.ConfidenceClass}} text-sm capitalize">{{.ConfidenceLabel}}</td>
                                <td class="py-2 px-4 text-gray-500 text-sm">{{.Round}}</td>
                            </tr>
                            {{end}}
                        </tbody>
                    </table>
                </div>
            </details>
            {{end}}
        </div>
    </main>

    <footer class="bg-gray-800 text-white py-6 px-4 mt-8">
        <div class="max-w-7xl mx-auto text-center text-sm opacity-75">
            <p>Company Valuation Platform | Data collected from public sources</p>
            <p class="mt-2">This report is for informational purposes only.</p>
        </div>
    </footer>

    <script>
        const factorsCtx = document.getElementById('factorsChart').getContext('2d');
        new Chart(factorsCtx, {
            type: 'bar',
            data: {
                labels: {{.FactorLabels}},
                datasets: [{
                    label: 'Score',
                    data: {{.FactorScores}},
                    backgroundColor: {{.FactorColors}},
                    borderWidth: 0,
                    borderRadius: 6,
                }]
            },
            options: {
                responsive: true,
                plugins: { legend: { display: false } },
                scales: {
                    y: { beginAtZero: true, max: 100, grid: { color: 'rgba(0,0,0,0.05)' } },
                    x: { grid: { display: false } }
                }
            }
        });

        const sourcesCtx = document.getElementById('sourcesChart').getContext('2d');
        new Chart(sourcesCtx, {
            type: 'doughnut',
            data: {
                labels: {{.SourceLabels}},
                datasets: [{
                    data: {{.SourceValues}},
                    backgroundColor: [
                        'rgba(99, 102, 241, 0.8)',
                        'rgba(139, 92, 246, 0.8)',
                        'rgba(236, 72, 153, 0.8)',
                        'rgba(34, 197, 94, 0.8)',
                        'rgba(251, 146, 60, 0.8)',
                        'rgba(59, 130, 246, 0.8)',
                        'rgba(168, 85, 247, 0.8)',
                    ],
                    borderWidth: 2,
                    borderColor: 'white'
                }]
            },
            options: {
                responsive: true,
                plugins: { legend: { position: 'right', labels: { padding: 15 } } }
            }
        });
    </script>
</body>
</html>
`

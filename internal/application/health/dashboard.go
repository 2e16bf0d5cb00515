package health

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"
)

// RenderDashboardHTML returns the status page served at GET /. The page polls /health/json a few
// times and then waits for a manual refresh.
func RenderDashboardHTML(h CollectResult) string {
	b, _ := json.Marshal(h)
	initial := strings.NewReplacer(`\`, `\\`, "`", "\\`", "$", `\$`).Replace(string(b))

	names := make([]string, 0, len(h.Dependencies))
	for name := range h.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	var deps strings.Builder
	for _, name := range names {
		d := h.Dependencies[name]
		class := "err"
		if d.Status == "connected" || d.Status == "reachable" {
			class = "ok"
		}
		ping := "?"
		if d.PingMs != nil {
			ping = fmt.Sprint(*d.PingMs)
		}
		id := html.EscapeString(name)
		fmt.Fprintf(&deps, `<div class="row"><span>%s</span><span id="pill-%s" class="pill %s"><span class="dot"></span><span id="ping-%s">%s ms</span></span></div>`,
			id, id, class, id, ping)
	}

	lastMethod, lastPath, lastIP := "-", "-", "-"
	if m, ok := h.Traffic.LastRequest.(map[string]interface{}); ok {
		if v, ok := m["method"].(string); ok {
			lastMethod = html.EscapeString(v)
		}
		if v, ok := m["path"].(string); ok {
			lastPath = html.EscapeString(v)
		}
		if v, ok := m["ip"].(string); ok {
			lastIP = html.EscapeString(v)
		}
	}

	headline := "All Systems Operational"
	if h.Status != "ok" {
		headline = "System Issues Detected"
	}

	return `<!DOCTYPE html>
<html lang="ro">
<head>
  <meta charset="UTF-8">
  <title>Nexar · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    :root { --brand: #1d4ed8; --dark: #0f172a; --accent: #f59e0b; --bg: #f8fafc; --muted: #64748b; }
    * { box-sizing: border-box; }
    body { background: var(--bg); color: var(--dark); font-family: system-ui, sans-serif; margin: 0; min-height: 100vh; display: flex; align-items: center; justify-content: center; }
    .container { width: 100%; max-width: 1100px; padding: 20px; }
    header { display: flex; justify-content: space-between; align-items: center; margin-bottom: 25px; }
    .brand { font-size: 28px; font-weight: 900; letter-spacing: -1px; color: var(--brand); }
    .time-badge { font-size: 13px; font-weight: 800; background: #fff; padding: 8px 18px; border-radius: 99px; border: 1px solid rgba(0,0,0,0.06); }
    h1 { font-size: clamp(30px, 5vw, 52px); font-weight: 900; letter-spacing: -2px; text-align: center; margin: 0 0 30px; }
    h1.issue { color: #dc2626; }
    .card { background: #fff; border-radius: 24px; box-shadow: 0 30px 80px -20px rgba(15,23,42,0.15); overflow: hidden; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); }
    .col { padding: 40px; border-right: 1px solid rgba(0,0,0,0.05); }
    .col:last-child { border-right: none; }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 900; letter-spacing: 2px; color: #94a3b8; margin-bottom: 20px; }
    .big { font-size: 40px; font-weight: 900; margin-bottom: 10px; }
    .row { display: flex; justify-content: space-between; padding: 8px 0; border-bottom: 1px solid rgba(0,0,0,0.04); font-size: 14px; font-weight: 700; }
    .row:last-child { border-bottom: none; }
    .pill { padding: 4px 10px; border-radius: 8px; font-size: 11px; font-weight: 900; display: flex; align-items: center; gap: 6px; }
    .ok { background: rgba(29,78,216,0.08); color: var(--brand); }
    .err { background: rgba(220,38,38,0.08); color: #dc2626; }
    .dot { width: 7px; height: 7px; border-radius: 50%; background: currentColor; }
    .footer { background: rgba(15,23,42,0.03); padding: 16px 40px; display: flex; justify-content: space-between; font-family: monospace; font-size: 13px; }
    .actions { margin-top: 25px; display: flex; gap: 15px; justify-content: center; align-items: center; color: var(--muted); font-weight: 800; }
    button { border: 1px solid rgba(0,0,0,0.1); background: #fff; padding: 8px 18px; border-radius: 10px; cursor: pointer; font-weight: 900; font-size: 12px; }
    #error-modal { display: none; position: fixed; inset: 0; background: rgba(15,23,42,0.4); align-items: center; justify-content: center; padding: 20px; }
    .modal { background: #fff; width: 100%; max-width: 700px; border-radius: 20px; padding: 30px; max-height: 80vh; overflow-y: auto; }
    .error-item { border-bottom: 1px solid #f1f5f9; padding: 12px 0; font-size: 13px; }
    .err-msg { font-weight: 700; color: #e11d48; }
    @media (max-width: 900px) { .grid { grid-template-columns: 1fr; } .col { border-right: none; } .footer { flex-direction: column; gap: 8px; } }
  </style>
</head>
<body>
  <div id="error-modal" onclick="closeErrors()">
    <div class="modal" onclick="event.stopPropagation()">
      <h2>Internal Server Errors (Last 50)</h2>
      <div id="error-list">Loading...</div>
    </div>
  </div>
  <div class="container">
    <header>
      <div class="brand">Nexar</div>
      <div class="time-badge"><span id="time-display"></span></div>
    </header>
    <h1 id="headline"` + headlineClass(h.Status) + `>` + headline + `</h1>
    <div class="card">
      <div class="grid">
        <div class="col">
          <div class="label">Traffic</div>
          <div class="big" id="total-req">` + fmt.Sprint(h.Traffic.TotalRequests) + `</div>
          <div class="row"><span>Successful</span><span id="success-count">` + fmt.Sprint(h.Traffic.SuccessCount) + `</span></div>
          <div class="row"><span>Failed</span><span id="failed-count">` + fmt.Sprint(h.Traffic.FailedCount) + `</span></div>
          <div class="row"><span>Success Rate</span><span id="success-rate">` + h.Traffic.SuccessRate + `%</span></div>
          <div class="row"><span>Avg Latency</span><span id="avg-time">` + h.Traffic.AvgResponseTime + `ms</span></div>
        </div>
        <div class="col">
          <div class="label">Runtime</div>
          <div class="big" id="uptime">--</div>
          <div class="row"><span>Heap In Use</span><span id="mem-heap">` + fmt.Sprint(h.Runtime.Memory.HeapInUse) + ` MB</span></div>
          <div class="row"><span>Goroutines</span><span id="goroutines">` + fmt.Sprint(h.Runtime.Goroutines) + `</span></div>
          <div class="row"><span>Platform</span><span>` + html.EscapeString(h.Runtime.Platform) + `</span></div>
          <div class="row"><span>Go</span><span>` + html.EscapeString(h.Runtime.GoVersion) + `</span></div>
        </div>
        <div class="col">
          <div class="label">Dependencies</div>
          ` + deps.String() + `
        </div>
      </div>
      <div class="footer">
        <div>LAST INBOUND <b id="req-method">` + lastMethod + `</b></div>
        <div id="req-path">` + lastPath + `</div>
        <div id="req-ip">` + lastIP + `</div>
      </div>
    </div>
    <div class="actions">
      <button onclick="showErrors()">View Error Log</button>
      <span id="updates-status">Live updates · <span id="count">3</span> left</span>
      <button onclick="tick(true)">Refresh</button>
    </div>
  </div>
  <script>
    let left = 3;
    const fmt = (s) => { const d = Math.floor(s / 86400); const h = Math.floor((s % 86400) / 3600); const m = Math.floor((s % 3600) / 60); return d > 0 ? d + 'd ' + h + 'h' : h + 'h ' + m + 'm ' + Math.floor(s % 60) + 's'; };
    const text = (id, v) => { const el = document.getElementById(id); if (el) el.innerText = v; };
    const updateUI = (d) => {
      text('time-display', new Date().toLocaleTimeString());
      text('total-req', d.traffic.totalRequests);
      text('success-count', d.traffic.successCount);
      text('failed-count', d.traffic.failedCount);
      text('success-rate', d.traffic.successRate + '%');
      text('avg-time', d.traffic.avgResponseTime + 'ms');
      text('uptime', fmt(d.runtime.uptimeSeconds));
      text('mem-heap', d.runtime.memory.heapInUseMb + ' MB');
      text('goroutines', d.runtime.goroutines);
      if (d.traffic.lastRequest) { text('req-method', d.traffic.lastRequest.method); text('req-path', d.traffic.lastRequest.path); text('req-ip', d.traffic.lastRequest.ip); }
      Object.entries(d.dependencies).forEach(([name, dep]) => {
        const pill = document.getElementById('pill-' + name);
        if (!pill) return;
        pill.className = 'pill ' + (dep.status === 'connected' || dep.status === 'reachable' ? 'ok' : 'err');
        text('ping-' + name, (dep.pingMs != null ? dep.pingMs : '?') + ' ms');
      });
      const hl = document.getElementById('headline');
      hl.innerText = d.status === 'ok' ? 'All Systems Operational' : 'System Issues Detected';
      hl.className = d.status === 'ok' ? '' : 'issue';
    };
    async function tick(manual) {
      if (!manual && left <= 0) return;
      try {
        const r = await fetch('/health/json');
        updateUI(await r.json());
        if (!manual) { left--; text('count', left); if (left <= 0) text('updates-status', 'Updates paused'); }
      } catch (e) {}
    }
    const esc = (s) => String(s == null ? '' : s).replace(/[&<>"']/g, (c) => ({'&':'&amp;','<':'&lt;','>':'&gt;','"':'&quot;',"'":'&#39;'}[c]));
    async function showErrors() {
      const modal = document.getElementById('error-modal');
      const list = document.getElementById('error-list');
      modal.style.display = 'flex';
      list.innerHTML = 'Fetching logs...';
      try {
        const errors = await (await fetch('/health/errors')).json();
        list.innerHTML = errors.length === 0 ? 'No internal errors recorded.' : errors.map(e => '<div class="error-item"><div>' + esc(new Date(e.time).toLocaleString()) + ' ' + esc(e.method) + ' ' + esc(e.path) + '</div><div class="err-msg">' + esc(e.message) + '</div></div>').join('');
      } catch (e) { list.innerHTML = 'Error loading logs.'; }
    }
    function closeErrors() { document.getElementById('error-modal').style.display = 'none'; }
    updateUI(JSON.parse(` + "`" + initial + "`" + `));
    setInterval(() => tick(), 10000);
  </script>
</body>
</html>`
}

func headlineClass(status string) string {
	if status == "ok" {
		return ""
	}
	return ` class="issue"`
}

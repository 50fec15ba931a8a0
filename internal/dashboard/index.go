package dashboard

// indexHTML is the single dashboard page. It polls the snapshot endpoint and
// keeps the original monitor's dark card layout.
const indexHTML = `<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Monitor Bolsa de Santiago</title>
<style>
  body { background: #0d1117; color: #fff; font-family: 'Inter', sans-serif; margin: 0; padding: 2rem; }
  h1 { font-size: 1.4rem; }
  .badge { padding: 4px 8px; border-radius: 6px; font-size: 0.8rem; font-weight: 600; }
  .open { background: rgba(46,160,67,0.15); color: #3fb950; border: 1px solid #2ea043; }
  .closed { background: rgba(218,54,51,0.15); color: #f85149; border: 1px solid #da3633; }
  .meta { color: #8b949e; font-size: 0.9rem; margin-left: 10px; }
  .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(280px, 1fr)); gap: 16px; margin-top: 20px; }
  .card { background: #161b22; border: 1px solid #30363d; border-radius: 12px; padding: 16px; }
  .card:hover { border-color: #58a6ff; }
  .nemo { color: #8b949e; font-size: 0.8rem; text-transform: uppercase; letter-spacing: 1px; }
  .price { font-size: 28px; font-weight: 700; }
  .delta-up { color: #3fb950; }
  .delta-down { color: #f85149; }
  .waiting { height: 120px; display: flex; align-items: center; justify-content: center; color: #8b949e; font-size: 0.8rem; }
  .error { color: #f85149; margin-top: 16px; }
  .warning { color: #d29922; margin-top: 8px; }
  img.spark { width: 100%; height: 120px; }
</style>
</head>
<body>
<h1>🇨🇱 Monitor Bolsa de Santiago</h1>
<div id="status"></div>
<div id="error" class="error"></div>
<div id="warning" class="warning"></div>
<div id="grid" class="grid"></div>
<script>
async function refresh() {
  const res = await fetch('/api/snapshot');
  const body = await res.json();
  const status = document.getElementById('status');
  const grid = document.getElementById('grid');
  const error = document.getElementById('error');
  const warning = document.getElementById('warning');
  if (!body.ready) { status.textContent = 'Esperando primer ciclo...'; return; }
  const snap = body.snapshot;
  const badge = snap.market_open
    ? '<span class="badge open">● MERCADO ABIERTO</span>'
    : '<span class="badge closed">● MERCADO CERRADO</span>';
  status.innerHTML = badge + '<span class="meta">Actualizado: ' + new Date(snap.updated_at).toLocaleTimeString() + '</span>';
  error.textContent = snap.error ? 'Error de conexión: ' + snap.error : '';
  warning.textContent = snap.warning ? 'Error guardando datos: ' + snap.warning : '';
  grid.innerHTML = '';
  for (const card of (snap.cards || [])) {
    const cls = card.delta.trend === 'down' ? 'delta-down' : 'delta-up';
    const delta = card.delta.computed ? (cls === 'delta-down' ? '' : '+') + Number(card.delta.pct).toFixed(2) + '%' : '—';
    const spark = card.history && card.history.length > 1
      ? '<img class="spark" src="/sparkline/' + card.nemo + '.png?t=' + Date.now() + '">'
      : '<div class="waiting">Esperando más datos históricos...</div>';
    grid.innerHTML += '<div class="card"><div class="nemo">' + card.nemo + '</div>' +
      '<div class="price">$' + Number(card.price).toFixed(2) + ' <span class="' + cls + '">' + delta + '</span></div>' +
      spark + '</div>';
  }
}
refresh();
setInterval(refresh, 30000);
</script>
</body>
</html>
`

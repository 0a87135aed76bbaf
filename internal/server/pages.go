package server

import "net/http"

// indexPage is the built-in bar preview: it loads the widget list, renders
// current markup, and applies websocket updates in place.
const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>lumen</title>
<style>
  body { margin: 0; font: 13px/1.5 system-ui, sans-serif; background: #16161e; color: #c0caf5; }
  header { padding: 8px 16px; border-bottom: 1px solid #2f334d; display: flex; gap: 12px; align-items: baseline; }
  header h1 { font-size: 14px; margin: 0; }
  #status { font-size: 11px; color: #565f89; }
  #status.live { color: #9ece6a; }
  .widget { padding: 12px 16px; border-bottom: 1px solid #24283b; }
  .widget h2 { font-size: 11px; text-transform: uppercase; letter-spacing: 1px; color: #565f89; margin: 0 0 6px; }
  .widget .markup { white-space: pre-wrap; }
  .widget .error { color: #f7768e; }
</style>
</head>
<body>
<header><h1>lumen</h1><span id="status">connecting</span></header>
<main id="widgets"></main>
<script>
const container = document.getElementById("widgets");
const status = document.getElementById("status");
const sections = {};

function section(name) {
  if (!sections[name]) {
    const div = document.createElement("div");
    div.className = "widget";
    div.innerHTML = "<h2></h2><div class='markup'></div>";
    div.querySelector("h2").textContent = name;
    container.appendChild(div);
    sections[name] = div;
  }
  return sections[name];
}

function apply(name, markup, error) {
  const target = section(name).querySelector(".markup");
  if (error) {
    target.textContent = error;
    target.classList.add("error");
  } else {
    target.innerHTML = markup;
    target.classList.remove("error");
  }
}

fetch("/api/widgets")
  .then(r => r.json())
  .then(widgets => Promise.all(widgets.map(w =>
    fetch("/api/widgets/" + encodeURIComponent(w.name))
      .then(r => r.json())
      .then(state => apply(w.name, state.markup, state.error)))))
  .catch(() => {});

function connect() {
  const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
  ws.onopen = () => { status.textContent = "live"; status.classList.add("live"); };
  ws.onmessage = e => {
    const msg = JSON.parse(e.data);
    apply(msg.widget, msg.markup, msg.error);
  };
  ws.onclose = () => {
    status.textContent = "reconnecting";
    status.classList.remove("live");
    setTimeout(connect, 1000);
  };
}
connect();
</script>
</body>
</html>
`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexPage))
}

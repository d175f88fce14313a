package server

import (
	"html/template"
	"net/http"

	"github.com/matzehuels/orgchart/pkg/buildinfo"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="generator" content="orgchart {{.Version}}">
<title>orgchart</title>
<style>
  html, body { margin: 0; height: 100%; background: #fafafa; font-family: sans-serif; }
  #bar { position: fixed; top: 8px; left: 8px; z-index: 1; }
  #chart svg { width: 100vw; height: 100vh; display: block; }
</style>
</head>
<body>
<form id="bar">
  <input id="search" placeholder="Search by id" autocomplete="off">
  <button type="submit">Focus</button>
  <button type="button" id="clear">Clear</button>
  <button type="button" id="reheat">Reheat</button>
</form>
<div id="chart">{{.SVG}}</div>
<script>
(function () {
  var chart = document.getElementById("chart");

  function send(method, path, body) {
    return fetch(path, {
      method: method,
      headers: {"Content-Type": "application/json"},
      body: body ? JSON.stringify(body) : undefined
    });
  }

  function redraw() {
    fetch("api/scene.svg").then(function (r) { return r.text(); })
      .then(function (svg) { chart.innerHTML = svg; });
  }

  function apply(msg) {
    var root = chart.querySelector("svg");
    if (!root || !msg.frame) { return; }
    var vp = root.querySelector("g.viewport");
    if (vp && msg.transform) { vp.setAttribute("transform", msg.transform); }
    var pos = {};
    (msg.frame.nodes || []).forEach(function (n) {
      pos[n.id] = n;
      (n.members || []).forEach(function (m) { pos[m.id] = {x: n.x + m.x, y: n.y + m.y}; });
      var el = document.getElementById("node-" + n.id);
      if (el) { el.setAttribute("transform", "translate(" + n.x + "," + n.y + ")"); }
    });
    root.querySelectorAll("line.link").forEach(function (l) {
      var s = pos[l.dataset.source], t = pos[l.dataset.target];
      if (!s || !t) { return; }
      l.setAttribute("x1", s.x); l.setAttribute("y1", s.y);
      l.setAttribute("x2", t.x); l.setAttribute("y2", t.y);
    });
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + location.pathname.substring(0, location.pathname.lastIndexOf("/") + 1) + "ws");
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      if (msg.type === "reload") { redraw(); } else { apply(msg); }
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }

  document.getElementById("bar").addEventListener("submit", function (ev) {
    ev.preventDefault();
    send("POST", "api/focus", {id: document.getElementById("search").value.trim()}).then(redraw);
  });
  document.getElementById("clear").addEventListener("click", function () {
    send("DELETE", "api/focus").then(redraw);
  });
  document.getElementById("reheat").addEventListener("click", function () {
    send("POST", "api/reheat");
  });
  window.addEventListener("resize", function () {
    send("POST", "api/resize", {width: window.innerWidth, height: window.innerHeight}).then(redraw);
  });

  connect();
})();
</script>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		SVG     template.HTML
		Version string
	}{
		// The scene writer escapes every name and id it emits.
		SVG:     template.HTML(s.engine.SVG()),
		Version: buildinfo.Version,
	}
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("render page", "err", err)
	}
}

package web

import (
	"html/template"
	"io"

	"github.com/sweeney/beam-target/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"title": func(snap status.Snapshot) string {
		if snap.Network != nil && snap.Network.SSID != "" {
			return snap.Network.SSID
		}
		return "Beam Target"
	},
	"pixels": func(n int) []int {
		return make([]int, n)
	},
}).Parse(indexHTML))

// The strip simulator replays the same five phases the daemon drives on the
// real strip, with the same frame counts and holds.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{title .}}</title>
<style>
body { font-family: sans-serif; background: #1f2024; color: #fff; text-align: center; margin: 0; padding: 1.5em 1em; }
h1 { font-size: 1.6em; letter-spacing: .08em; }
#strip { display: flex; justify-content: center; gap: 4px; margin: 1.5em 0; }
.px { width: 16px; height: 16px; border-radius: 50%; background: #000; border: 1px solid #333; }
#scoreboard { display: flex; flex-wrap: wrap; justify-content: center; gap: 1em; margin-bottom: 1.5em; }
.player { position: relative; width: 150px; padding: .8em; background: rgba(255,255,255,.08); border: 2px solid transparent; border-radius: 8px; cursor: pointer; }
.player.selected { border-color: #00ffd5; background: rgba(0,255,213,.08); }
.player input { width: 100%; font-size: 1em; color: #fff; background: transparent; border: none; text-align: center; }
.player .score { font-size: 2.2em; color: #00ffd5; margin-top: .2em; }
.player .del { position: absolute; top: 2px; right: 4px; background: none; border: none; color: #aaa; cursor: pointer; }
button.action { font-size: 1em; padding: .6em 1.4em; margin: .3em; border: none; border-radius: 6px; background: #00ffd5; color: #1f2024; cursor: pointer; }
button.action:disabled { opacity: .4; cursor: not-allowed; }
#conn { color: #888; font-size: .9em; margin-top: 1em; }
#conn.ok { color: #00ffd5; }
#qr { margin-top: 1.5em; }
</style>
</head>
<body>
<h1>{{title .}}</h1>
<div id="strip">{{range pixels .Config.LEDs}}<div class="px"></div>{{end}}</div>
<div id="scoreboard"></div>
<div><button class="action" id="add">Add Player</button></div>
<div><button class="action" id="send" disabled>Send Hit</button></div>
<div id="conn">connecting</div>
<div id="qr"><img src="/qr.png" width="128" height="128" alt="join"></div>

<script>
(function() {
  var board = document.getElementById("scoreboard");
  var sendBtn = document.getElementById("send");
  var conn = document.getElementById("conn");
  var px = document.querySelectorAll("#strip .px");
  var players = [], active = -1, count = 0, socket = null, busy = false;

  function select(i) {
    if (active >= 0 && players[active]) players[active].box.classList.remove("selected");
    active = i;
    if (active >= 0) players[active].box.classList.add("selected");
    sendBtn.disabled = active < 0 || !socket || socket.readyState !== 1;
  }

  function addPlayer() {
    count++;
    var p = { score: 0 };
    p.box = document.createElement("div");
    p.box.className = "player";
    var del = document.createElement("button");
    del.className = "del";
    del.textContent = "x";
    var name = document.createElement("input");
    name.value = "Player " + count;
    p.span = document.createElement("div");
    p.span.className = "score";
    p.span.textContent = "0";
    p.box.appendChild(del);
    p.box.appendChild(name);
    p.box.appendChild(p.span);
    board.appendChild(p.box);
    players.push(p);
    p.box.addEventListener("click", function() { select(players.indexOf(p)); });
    del.addEventListener("click", function(e) {
      e.stopPropagation();
      var i = players.indexOf(p);
      board.removeChild(p.box);
      players.splice(i, 1);
      if (i < active) {
        active--;
      } else if (i === active) {
        active = -1;
        select(players.length ? Math.min(i, players.length - 1) : -1);
      }
    });
    if (active < 0) select(0);
  }

  function hue(h) {
    h = ((h % 65536) + 65536) % 65536;
    return "hsl(" + Math.round(h * 360 / 65536) + ",100%,50%)";
  }
  function fill(c) { for (var i = 0; i < px.length; i++) px[i].style.background = c; }
  function set(i, c) { if (px[i]) px[i].style.background = c; }

  function frames() {
    var n = px.length, f = [], j, q, k;
    var cols = ["#f00", "#0f0", "#00f", "#000"];
    for (k = 0; k < 12; k++) f.push({ hold: 100, draw: (function(c) { return function() { fill(c); }; })(cols[k % 4]) });
    for (k = 0; k < n; k++) f.push({ hold: 50, draw: (function(i) { return function() { set(i, hue(i * 65536 / n)); }; })(k) });
    for (j = 0; j < 256; j += 5) f.push({ hold: 20, draw: (function(j) { return function() {
      for (var i = 0; i < n; i++) set(i, hue(i * 65536 / n + j * 256));
      document.getElementById("strip").style.opacity = Math.max(0, Math.min(1, (100 + 80 * Math.sin(j * Math.PI / 128)) / 180));
    }; })(j) });
    f.push({ hold: 0, draw: function() { document.getElementById("strip").style.opacity = 1; } });
    for (j = 0; j < 256; j += 32) for (q = 0; q < 3; q++) f.push((function(j, q) { return {
      hold: 50,
      draw: function() { for (var i = q; i < n; i += 3) set(i, hue(i * 65536 / n + j)); },
      after: function() { for (var i = q; i < n; i += 3) set(i, "#000"); }
    }; })(j, q));
    for (k = 0; k < 60; k++) f.push({ hold: 50, draw: (function(h) { return function() { fill(hue(h)); }; })(k * 4096) });
    f.push({ hold: 0, draw: function() { fill("#000"); } });
    return f;
  }

  function animate() {
    if (busy) return;
    busy = true;
    var f = frames(), k = 0;
    (function next() {
      if (k >= f.length) { busy = false; return; }
      var fr = f[k++];
      fr.draw();
      setTimeout(function() {
        if (fr.after) fr.after();
        next();
      }, fr.hold);
    })();
  }

  function registerHit() {
    if (active >= 0 && players[active]) {
      players[active].score++;
      players[active].span.textContent = players[active].score;
    }
    animate();
  }

  function connect() {
    socket = new WebSocket("ws://" + location.host + "/ws");
    socket.onopen = function() { conn.textContent = "connected"; conn.className = "ok"; select(active); };
    socket.onclose = function() {
      conn.textContent = "disconnected, retrying"; conn.className = "";
      sendBtn.disabled = true;
      setTimeout(connect, 2000);
    };
    socket.onmessage = function(e) { if (e.data === "HIT") registerHit(); };
  }

  document.getElementById("add").addEventListener("click", addPlayer);
  sendBtn.addEventListener("click", function() { if (socket && socket.readyState === 1) socket.send("hit"); });
  addPlayer();
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	return indexTmpl.Execute(w, snap)
}

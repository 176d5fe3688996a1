package api

import (
	"net/http"
)

// operatorUIHTML is the single-page console served at "/". It drives the
// /control endpoints, polls /state after every event and tails /ws.
const operatorUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Sentient Player</title>
<style>
:root {
    --bg: #101418;
    --panel: #181e24;
    --edge: #2a333c;
    --text: #d8dee4;
    --dim: #7d8791;
    --ok: #3fb27f;
    --bad: #e0584f;
    --warn: #d9a13b;
    --accent: #4c8dd6;
}
html, body { margin: 0; height: 100%; }
body {
    display: grid;
    grid-template-rows: auto auto 1fr auto;
    grid-template-columns: 1fr 260px;
    grid-template-areas: "top top" "bar bar" "log side" "foot foot";
    background: var(--bg);
    color: var(--text);
    font: 13px/1.4 ui-monospace, Menlo, Consolas, monospace;
}
.top {
    grid-area: top;
    display: flex;
    align-items: center;
    gap: 12px;
    padding: 10px 16px;
    background: var(--panel);
    border-bottom: 1px solid var(--edge);
}
.top strong { flex: 1; letter-spacing: .04em; }
.pill { padding: 2px 8px; border-radius: 10px; font-size: 11px; border: 1px solid currentColor; }
.pill.up { color: var(--ok); }
.pill.down { color: var(--bad); }
.pill.wait { color: var(--warn); }
.bar {
    grid-area: bar;
    display: flex;
    flex-wrap: wrap;
    gap: 6px;
    padding: 8px 16px;
    border-bottom: 1px solid var(--edge);
}
.bar button, .bar input {
    font: inherit;
    color: var(--text);
    background: var(--panel);
    border: 1px solid var(--edge);
    padding: 5px 11px;
}
.bar button { cursor: pointer; }
.bar button:hover { border-color: var(--accent); }
.bar button[data-tone=go] { border-color: var(--ok); }
.bar button[data-tone=halt] { border-color: var(--bad); }
.bar input { width: 150px; margin-left: 12px; }
#flash { align-self: center; margin-left: auto; font-size: 12px; }
#flash.ok { color: var(--ok); }
#flash.fail { color: var(--bad); }
.log { grid-area: log; overflow-y: auto; padding: 6px 0; }
.row {
    display: grid;
    grid-template-columns: 72px 170px 1fr;
    gap: 10px;
    padding: 3px 16px;
    border-left: 2px solid transparent;
}
.row:nth-child(odd) { background: rgba(255, 255, 255, .02); }
.row .when { color: var(--dim); }
.row .what { color: var(--accent); }
.row.warn { border-left-color: var(--warn); }
.row.error { border-left-color: var(--bad); }
.row.error .what { color: var(--bad); }
.side {
    grid-area: side;
    padding: 12px 16px;
    background: var(--panel);
    border-left: 1px solid var(--edge);
    overflow-y: auto;
}
.side dt { color: var(--dim); font-size: 11px; text-transform: uppercase; margin-top: 10px; }
.side dd { margin: 2px 0 0; word-break: break-all; }
.foot {
    grid-area: foot;
    padding: 5px 16px;
    color: var(--dim);
    font-size: 11px;
    border-top: 1px solid var(--edge);
}
</style>
</head>
<body>
<div class="top">
    <strong>SENTIENT PLAYER</strong>
    <span id="link" class="pill down">offline</span>
</div>
<div class="bar">
    <button data-act="play" data-tone="go">play</button>
    <button data-act="pause">pause</button>
    <button data-act="resume">resume</button>
    <button data-act="back">back</button>
    <button data-act="stop" data-tone="halt">stop</button>
    <input id="target" placeholder="subject id">
    <button id="jump">goto</button>
    <span id="flash"></span>
</div>
<div class="log" id="log"></div>
<dl class="side">
    <dt>state</dt><dd data-key="state">-</dd>
    <dt>subject</dt><dd data-key="subject">-</dd>
    <dt>media</dt><dd data-key="media">-</dd>
    <dt>play time</dt><dd data-key="time">-</dd>
    <dt>overlays</dt><dd data-key="overlays">-</dd>
    <dt>question</dt><dd data-key="question">-</dd>
    <dt>variables</dt><dd data-key="vars">-</dd>
</dl>
<div class="foot"><span id="seen">0</span> events received</div>
<script>
(function () {
    var log = document.getElementById('log');
    var link = document.getElementById('link');
    var flash = document.getElementById('flash');
    var target = document.getElementById('target');
    var seen = 0;
    var retry = null;
    var keepRows = 400;

    function cell(cls, text) {
        var s = document.createElement('span');
        s.className = cls;
        s.textContent = text;
        return s;
    }

    function detail(e) {
        var f = e.fields || {};
        var key = f.subject || f.location || f.view_id || f.target;
        if (key) return key + (e.msg ? '  ' + e.msg : '');
        if (f.id !== undefined) return f.id + (f.value !== undefined ? '=' + f.value : '');
        return e.msg || '';
    }

    function append(e) {
        var row = document.createElement('div');
        row.className = 'row ' + (e.level || 'info');
        var when = new Date(e.ts);
        row.appendChild(cell('when', isNaN(when) ? e.ts : when.toTimeString().slice(0, 8)));
        row.appendChild(cell('what', e.event));
        row.appendChild(cell('detail', detail(e)));
        log.appendChild(row);
        while (log.childElementCount > keepRows) log.removeChild(log.firstElementChild);
        log.scrollTop = log.scrollHeight;
        document.getElementById('seen').textContent = ++seen;
    }

    function put(key, value) {
        document.querySelector('[data-key="' + key + '"]').textContent = value || '-';
    }

    function show(st) {
        if (!st) return;
        var vars = st.variables || {};
        put('state', st.state);
        put('subject', st.location ? st.subject + ' @ ' + st.location : st.subject);
        put('media', st.media_type && st.media_type + ' #' + st.media_id);
        put('time', ((st.play_time_ms || 0) / 1000).toFixed(1) + 's');
        put('overlays', (st.overlays || []).join(', '));
        put('question', st.question);
        put('vars', Object.keys(vars).sort().map(function (k) { return k + '=' + vars[k]; }).join('\n'));
    }

    function poll() {
        fetch('/state').then(function (r) { return r.json(); })
            .then(function (d) { if (d.ok) show(d.result); })
            .catch(function () {});
    }

    function note(ok, text) {
        flash.className = ok ? 'ok' : 'fail';
        flash.textContent = text;
    }

    function send(action, body) {
        return fetch('/control/' + action, {
            method: 'POST',
            headers: { 'Content-Type': 'application/json' },
            body: JSON.stringify(body || {})
        }).then(function (r) { return r.json(); })
            .then(function (d) {
                note(d.ok, d.ok ? action : (d.error || action + ' rejected'));
                if (d.ok) show(d.result);
                return d;
            })
            .catch(function () { note(false, 'request failed'); });
    }

    function jump() {
        var id = target.value.trim();
        if (!id) return note(false, 'subject id required');
        send('goto', { subject: id }).then(function (d) { if (d && d.ok) target.value = ''; });
    }

    function open() {
        link.className = 'pill wait';
        link.textContent = 'connecting';
        var ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
        ws.onopen = function () {
            link.className = 'pill up';
            link.textContent = 'live';
            poll();
        };
        ws.onmessage = function (m) {
            try { append(JSON.parse(m.data)); } catch (err) { return; }
            poll();
        };
        ws.onclose = function () {
            link.className = 'pill down';
            link.textContent = 'offline';
            if (!retry) retry = setTimeout(function () { retry = null; open(); }, 2500);
        };
        ws.onerror = function () { ws.close(); };
    }

    document.querySelectorAll('[data-act]').forEach(function (b) {
        b.addEventListener('click', function () { send(b.dataset.act); });
    });
    document.getElementById('jump').addEventListener('click', jump);
    target.addEventListener('keydown', function (e) { if (e.key === 'Enter') jump(); });
    open();
})();
</script>
</body>
</html>`

func operatorUIHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(operatorUIHTML))
}

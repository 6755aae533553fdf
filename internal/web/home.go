package web

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Home renders the landing page. joinCode prefills the join form when the page
// is opened from a QR link.
func Home(joinCode string, sessions []SessionSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, homeHead); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<form id="joinForm" class="join-form">
          <input name="code" placeholder="Session code" inputmode="numeric" maxlength="6" autocomplete="off" value="`+templ.EscapeString(joinCode)+`" required/>
          <input name="name" placeholder="Display name" maxlength="20" autocomplete="name" required/>
          <button type="submit" class="secondary">Join</button>
        </form>
        <div id="joinResult" class="result"></div>
      </section>
`); err != nil {
			return err
		}
		if err := sessionList(sessions).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, homeScript)
		return err
	})
}

func sessionList(sessions []SessionSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `      <section class="panel">
        <h2>Live sessions</h2>
`); err != nil {
			return err
		}
		if len(sessions) == 0 {
			if _, err := io.WriteString(w, `        <p class="muted">No sessions are running.</p>
`); err != nil {
				return err
			}
		} else {
			if _, err := io.WriteString(w, `        <ul class="sessions">
`); err != nil {
				return err
			}
			for _, session := range sessions {
				line := `          <li><a href="/?join=` + templ.EscapeString(session.Code) + `">` +
					templ.EscapeString(session.Code) + `</a> <span>` +
					templ.EscapeString(phaseLabel(session.Phase)) + `</span> <span>` +
					playersLabel(session.Players) + `</span></li>
`
				if _, err := io.WriteString(w, line); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `        </ul>
`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `      </section>
`)
		return err
	})
}

const homeHead = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Imitation Game</title>
    <style>
      body { font-family: system-ui, sans-serif; margin: 0; background: #f6f4ef; color: #1a1a1a; }
      .shell { max-width: 40rem; margin: 0 auto; padding: 2rem 1rem; display: grid; gap: 1rem; }
      .panel { background: #fff; border-radius: 0.75rem; padding: 1rem 1.25rem; }
      .join-form { display: flex; gap: 0.5rem; flex-wrap: wrap; }
      .sessions { list-style: none; padding: 0; display: grid; gap: 0.25rem; }
      .sessions span { color: #666; margin-left: 0.5rem; }
      .muted { color: #666; }
    </style>
  </head>
  <body>
    <main class="shell">
      <header>
        <h1>Imitation Game</h1>
        <p>Watch a clip, imitate it, then rate everyone else's take.</p>
      </header>

      <section class="panel">
        <h2>Host a session</h2>
        <form id="createForm" class="join-form">
          <input name="name" placeholder="Display name" maxlength="20" autocomplete="name" required/>
          <button type="submit" class="primary">Create</button>
        </form>
        <div id="createResult" class="result"></div>
      </section>

      <section class="panel">
        <h2>Join a session</h2>
        `

const homeScript = `    </main>

    <script>
      const scheme = location.protocol === "https:" ? "wss://" : "ws://";
      let socket;
      let nextAck = 0;
      const pending = new Map();

      function connect() {
        if (socket && socket.readyState <= 1) {
          return Promise.resolve(socket);
        }
        socket = new WebSocket(scheme + location.host + "/ws");
        socket.addEventListener("message", (event) => {
          const frame = JSON.parse(event.data);
          if (frame.type === "ack" && pending.has(frame.ack)) {
            pending.get(frame.ack)(frame.data);
            pending.delete(frame.ack);
          }
        });
        return new Promise((resolve) => socket.addEventListener("open", () => resolve(socket)));
      }

      async function send(type, data) {
        const ws = await connect();
        const ack = String(++nextAck);
        return new Promise((resolve) => {
          pending.set(ack, resolve);
          ws.send(JSON.stringify({ type, ack, data }));
        });
      }

      document.getElementById("createForm").addEventListener("submit", async (event) => {
        event.preventDefault();
        const out = document.getElementById("createResult");
        const result = await send("create_room", { name: event.target.elements.name.value.trim() });
        out.textContent = result.success ? "Session " + result.roomId + " created." : result.error;
      });

      document.getElementById("joinForm").addEventListener("submit", async (event) => {
        event.preventDefault();
        const out = document.getElementById("joinResult");
        const form = event.target.elements;
        const result = await send("join_room", { code: form.code.value.trim(), name: form.name.value.trim() });
        out.textContent = result.success ? "Joined session " + result.roomId + "." : result.error;
      });
    </script>
  </body>
</html>
`

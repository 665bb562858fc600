package page

// ClientScript forwards tree interactions to the server and replaces the
// mount contents with each tree update it receives.
const ClientScript = `
(function () {
  const mount = document.querySelector('.json-tree-mount');
  if (!mount) return;

  let ws;
  let observer;
  let reconnectTimer;

  function send(action, nodeId) {
    if (!ws || ws.readyState !== WebSocket.OPEN) return;
    const msg = { action: action };
    if (nodeId) msg.node_id = nodeId;
    ws.send(JSON.stringify(msg));
  }

  function observe() {
    if (observer) observer.disconnect();
    const tree = mount.querySelector('.json-tree');
    if (!tree || tree.dataset.virtualized !== 'true') return;
    observer = new IntersectionObserver(function (entries) {
      entries.forEach(function (entry) {
        if (!entry.isIntersecting) return;
        observer.unobserve(entry.target);
        send('intersect', entry.target.dataset.nodeId);
      });
    }, { rootMargin: tree.dataset.rootMargin || '50px' });
    mount.querySelectorAll('[data-observe="true"]').forEach(function (el) {
      observer.observe(el);
    });
  }

  mount.addEventListener('click', function (event) {
    const target = event.target.closest('[data-action]');
    if (!target || !mount.contains(target)) return;
    event.preventDefault();
    send(target.dataset.action, target.dataset.nodeId);
  });

  function connect() {
    const protocol = window.location.protocol === 'https:' ? 'wss:' : 'ws:';
    ws = new WebSocket(protocol + '//' + window.location.host + (mount.dataset.wsPath || '/ws'));

    ws.onopen = function () {
      clearTimeout(reconnectTimer);
      observe();
    };

    ws.onmessage = function (event) {
      const message = JSON.parse(event.data);
      switch (message.type) {
        case 'tree':
          const scrollY = window.scrollY;
          mount.innerHTML = message.html;
          window.scrollTo(0, scrollY);
          observe();
          break;
        case 'error':
          console.error('json tree:', message.error);
          break;
      }
    };

    ws.onclose = function () {
      reconnectTimer = setTimeout(connect, 2000);
    };
  }

  connect();
})();
`

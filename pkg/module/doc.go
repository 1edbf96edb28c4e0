// Package module resolves request paths to mock modules.
//
// A mock module is a named set of handlers plus an optional response delay.
// Modules are usually defined on disk under a mock root, one file per
// module: a request for /data/user/list resolves to the identity "user/list"
// and is served from <root>/user/list.yaml (or .yml, .json).
//
// The Registry evicts and reloads a module on every resolution by default,
// so edits to a definition are visible on the very next request without
// restarting the server.
//
// # Definitions
//
//	timeout: 300
//	handlers:
//	  response:
//	    expr: 'list(body.items, {"pageNo": query.page})'
//	  _user_detail:
//	    body: {success: true, result: {id: 1}}
//	  page:
//	    bodyFile: list.html
//
// Handler expressions are evaluated with expr-lang and can use the request
// (path, pathname, method, body, query, headers), the envelope builders (ok,
// session, list, fail, fieldFail, globalFail, iframeCallback) and the helpers
// raw, jsonpath and uuid.
package module

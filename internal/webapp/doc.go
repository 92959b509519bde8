// Package webapp describes the PhotoLive web application on disk and the
// tooling needed to run it.
//
// It provides the collaborators the supervisor drives:
//   - Layout: the web app directory, its package.json and node_modules
//   - Manifest: the entry script declared in package.json
//   - CommandProvisioner: the one-time "npm install"
//   - Locator: the Node.js executable, probed at well-known install paths
//     before falling back to PATH
package webapp

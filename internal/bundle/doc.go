// Package bundle 聚合携带内嵌页面模板资源的插件包，并提供统一的注册入口。
//
// Bundle 作者需要：
//  1. 实现 Bundle 接口（枚举资源标识符 + 按标识符打开字节流），或直接用
//     NewFSBundle 把 embed.FS 适配成 Bundle；
//  2. 在 init() 中通过 MustRegister 注册，配置文件里的 Binding.Bundle
//     字段按键值引用；
//  3. 保证 Resources() 的枚举顺序稳定，缓存初始化的去重语义依赖该顺序。
//
// 该包同时提供资源目录（Catalog）：按命名约定过滤出可作为页面服务的资源。
package bundle
